package event

import (
	"strings"
	"time"
)

// DateLayout is the canonical wire and storage layout for civil dates.
const DateLayout = "2006-01-02"

// RawRecord is one event as returned by a source adapter. Text fields are kept
// exactly as scraped; the normalizer owns all parsing.
type RawRecord struct {
	SourceName      string   `json:"source_name"`
	SourceEventURL  string   `json:"source_event_url"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	DateText        string   `json:"date_text"`
	DateEndText     string   `json:"date_end_text,omitempty"`
	TimeText        string   `json:"time_text,omitempty"`
	TimeEndText     string   `json:"time_end_text,omitempty"`
	PriceText       string   `json:"price_text,omitempty"`
	LocationName    string   `json:"location_name"`
	Address         string   `json:"address,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	RawCategory     string   `json:"raw_category,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	TicketURL       string   `json:"ticket_url,omitempty"`
	HasTicketButton bool     `json:"has_ticket_button,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	Organizer       string   `json:"organizer,omitempty"`
}

// NormalizedEvent is a RawRecord after date, time, price, and location parsing.
// Optional values are nil pointers or empty strings.
type NormalizedEvent struct {
	Title                 string     `json:"title"`
	Description           string     `json:"description,omitempty"`
	Category              string     `json:"category,omitempty"`
	SubCategory           string     `json:"sub_category,omitempty"`
	ClassifierConfidence  float64    `json:"classifier_confidence,omitempty"`
	Tags                  []string   `json:"tags,omitempty"`
	DateStart             time.Time  `json:"date_start"`
	DateEnd               *time.Time `json:"date_end,omitempty"`
	TimeStart             string     `json:"time_start,omitempty"`
	TimeEnd               string     `json:"time_end,omitempty"`
	TimeOfDay             TimeOfDay  `json:"time_of_day"`
	LocationName          string     `json:"location_name"`
	Address               string     `json:"address,omitempty"`
	Arrondissement        *int       `json:"arrondissement,omitempty"`
	Latitude              *float64   `json:"latitude,omitempty"`
	Longitude             *float64   `json:"longitude,omitempty"`
	PriceFrom             *float64   `json:"price_from,omitempty"`
	PriceTo               *float64   `json:"price_to,omitempty"`
	IsFree                bool       `json:"is_free"`
	Currency              string     `json:"currency"`
	ImageURL              string     `json:"image_url,omitempty"`
	Organizer             string     `json:"organizer,omitempty"`
	SourceName            string     `json:"source_name"`
	SourceEventURL        string     `json:"source_event_url"`
	TicketURL             string     `json:"ticket_url,omitempty"`
	HasDirectTicketButton bool       `json:"has_direct_ticket_button"`
	Verified              bool       `json:"verified"`
}

// SourceKey identifies the record within its source. It is the idempotency key
// for witness rows.
func (e NormalizedEvent) SourceKey() SourceKey {
	return SourceKey{Source: e.SourceName, URL: e.SourceEventURL}
}

// DateKey returns the civil start date formatted with DateLayout.
func (e NormalizedEvent) DateKey() string {
	return e.DateStart.Format(DateLayout)
}

// SourceKey is the (source_name, source_event_url) pair.
type SourceKey struct {
	Source string `json:"source_name"`
	URL    string `json:"source_event_url"`
}

func (k SourceKey) String() string {
	return k.Source + " " + k.URL
}

// CanonicalEvent is the catalog representation of one real-world event.
type CanonicalEvent struct {
	NormalizedEvent
	ID          string      `json:"id"`
	ContentHash string      `json:"content_hash"`
	Sources     []SourceKey `json:"sources"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SourceKeys returns the source records merged into e. An event without
// recorded sources stands for its own record.
func (e CanonicalEvent) SourceKeys() []SourceKey {
	if len(e.Sources) == 0 {
		return []SourceKey{e.SourceKey()}
	}
	return e.Sources
}

// MemberRole distinguishes the elected record from the records merged into it.
type MemberRole string

const (
	RoleCanonical MemberRole = "canonical"
	RoleWitness   MemberRole = "witness"
)

// GroupMember is one source record inside a duplicate group. Scores come from
// the strongest matching comparison that brought the member into the group,
// which for a chained witness is not a comparison with the canonical record.
type GroupMember struct {
	SourceKey
	Role          MemberRole `json:"role"`
	TitleScore    float64    `json:"title_score"`
	LocationScore float64    `json:"location_score"`
}

// DuplicateGroup records which source records were merged into a canonical event.
type DuplicateGroup struct {
	CanonicalID string        `json:"canonical_id"`
	RunID       string        `json:"run_id,omitempty"`
	DateStart   time.Time     `json:"date_start"`
	Members     []GroupMember `json:"members"`
}

// Size returns the number of member records.
func (g DuplicateGroup) Size() int {
	return len(g.Members)
}

// SourceRunLog captures the outcome of one source within a run.
type SourceRunLog struct {
	RunID         string         `json:"run_id"`
	Source        string         `json:"source"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Found         int            `json:"found"`
	Normalized    int            `json:"normalized"`
	Rejected      int            `json:"rejected"`
	Merged        int            `json:"merged"`
	RejectReasons map[string]int `json:"reject_reasons,omitempty"`
	Status        SourceStatus   `json:"status"`
	Error         string         `json:"error,omitempty"`
}

// Duration returns how long the source ran.
func (l SourceRunLog) Duration() time.Duration {
	if l.FinishedAt.IsZero() || l.StartedAt.IsZero() {
		return 0
	}
	return l.FinishedAt.Sub(l.StartedAt)
}

// Reject counts a dropped record under reason.
func (l *SourceRunLog) Reject(reason string) {
	l.Rejected++
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	if l.RejectReasons == nil {
		l.RejectReasons = make(map[string]int)
	}
	l.RejectReasons[reason]++
}
