package catalog

import (
	"fmt"
	"strings"
	"time"

	"artify/internal/event"
)

// Filter narrows ListEvents. Zero values match everything.
type Filter struct {
	Category       string
	From           time.Time
	To             time.Time
	FreeOnly       bool
	Arrondissement int
	Source         string
	VerifiedOnly   bool
	Limit          int
}

// clause renders the WHERE clause. Events spanning several days match when
// any day falls inside [From, To].
func (f Filter) clause() (string, []any) {
	var conds []string
	var args []any
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		conds = append(conds, "COALESCE(date_end, date_start) >= ?")
		args = append(args, f.From.Format(event.DateLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, "date_start <= ?")
		args = append(args, f.To.Format(event.DateLayout))
	}
	if f.FreeOnly {
		conds = append(conds, "is_free = 1")
	}
	if f.Arrondissement > 0 {
		conds = append(conds, "arrondissement = ?")
		args = append(args, f.Arrondissement)
	}
	if f.Source != "" {
		conds = append(conds, "id IN (SELECT canonical_id FROM event_sources WHERE source_name = ?)")
		args = append(args, f.Source)
	}
	if f.VerifiedOnly {
		conds = append(conds, "verified = 1")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f Filter) key() string {
	day := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(event.DateLayout)
	}
	return fmt.Sprintf("%s|%s|%s|%t|%d|%s|%t|%d",
		f.Category, day(f.From), day(f.To), f.FreeOnly, f.Arrondissement, f.Source, f.VerifiedOnly, f.Limit)
}
