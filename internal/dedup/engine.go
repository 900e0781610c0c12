package dedup

import (
	"log/slog"
	"slices"
	"sort"
	"strings"

	"artify/internal/event"
	"artify/internal/logging"
	"artify/internal/textutil"
)

// Default similarity thresholds. Both are inclusive.
const (
	DefaultTitleThreshold    = 0.85
	DefaultLocationThreshold = 0.75
)

// Options configures an Engine.
type Options struct {
	TitleThreshold    float64
	LocationThreshold float64
	// Scorer compares titles and locations. Defaults to textutil.FuzzyScorer.
	Scorer textutil.Scorer
	// Trusted lists official venue sources preferred over aggregators when
	// electing a canonical record.
	Trusted map[string]bool
	Logger  *slog.Logger
}

// Stats summarizes one deduplication pass.
type Stats struct {
	Input            int            `json:"input"`
	Canonical        int            `json:"canonical"`
	GroupsFormed     int            `json:"groups_formed"`
	AverageGroupSize float64        `json:"average_group_size"`
	LargestGroup     int            `json:"largest_group"`
	MergedBySource   map[string]int `json:"merged_by_source,omitempty"`
}

// Merged returns how many input events were folded into another record.
func (s Stats) Merged() int {
	return s.Input - s.Canonical
}

// Result is the output of Deduplicate. Groups only lists merges (two or
// more members).
type Result struct {
	Events []event.CanonicalEvent
	Groups []event.DuplicateGroup
	Stats  Stats
}

// Engine groups duplicate events and elects canonical records.
type Engine struct {
	titleThreshold    float64
	locationThreshold float64
	scorer            textutil.Scorer
	trusted           map[string]bool
	logger            *slog.Logger
}

// New constructs an Engine. Zero thresholds take the defaults.
func New(opts Options) *Engine {
	if opts.TitleThreshold <= 0 {
		opts.TitleThreshold = DefaultTitleThreshold
	}
	if opts.LocationThreshold <= 0 {
		opts.LocationThreshold = DefaultLocationThreshold
	}
	if opts.Scorer == nil {
		opts.Scorer = textutil.FuzzyScorer{}
	}
	trusted := make(map[string]bool, len(opts.Trusted))
	for name, ok := range opts.Trusted {
		if ok {
			trusted[name] = true
		}
	}
	return &Engine{
		titleThreshold:    opts.TitleThreshold,
		locationThreshold: opts.LocationThreshold,
		scorer:            opts.Scorer,
		trusted:           trusted,
		logger:            logging.NewComponentLogger(opts.Logger, "dedup"),
	}
}

// LocationKey is the text compared for location similarity.
func LocationKey(ev event.NormalizedEvent) string {
	return strings.TrimSpace(ev.LocationName + " " + ev.Address)
}

// Similar scores a pair and reports whether it clears both thresholds.
// Events on different start dates never match.
func (e *Engine) Similar(a, b event.NormalizedEvent) (title, location float64, match bool) {
	if a.DateKey() != b.DateKey() {
		return 0, 0, false
	}
	title = e.scorer.Score(a.Title, b.Title)
	location = e.locationScore(a, b)
	return title, location, title >= e.titleThreshold && location >= e.locationThreshold
}

func (e *Engine) locationScore(a, b event.NormalizedEvent) float64 {
	la, lb := LocationKey(a), LocationKey(b)
	if la == "" || lb == "" {
		return 0
	}
	return e.scorer.Score(la, lb)
}

// Deduplicate merges events over the whole pool. The input is not modified.
// Every input event is represented by exactly one returned CanonicalEvent.
func (e *Engine) Deduplicate(events []event.NormalizedEvent) Result {
	pool := slices.Clone(events)
	uf := newUnionFind(len(pool))

	links := make([]link, len(pool))
	buckets := make(map[string][]int)
	for i, ev := range pool {
		key := ev.DateKey()
		buckets[key] = append(buckets[key], i)
	}
	for _, members := range buckets {
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				i, j := members[x], members[y]
				if title, location, ok := e.Similar(pool[i], pool[j]); ok {
					uf.union(i, j)
					links[i].keep(title, location)
					links[j].keep(title, location)
				}
			}
		}
	}

	byRoot := make(map[int][]int)
	for i := range pool {
		root := uf.find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	type cluster struct {
		ranked []event.NormalizedEvent
		links  []link
	}
	clusters := make([]cluster, 0, len(byRoot))
	for _, idx := range byRoot {
		sort.SliceStable(idx, func(a, b int) bool {
			return outranks(pool[idx[a]], pool[idx[b]], e.trusted)
		})
		c := cluster{ranked: make([]event.NormalizedEvent, len(idx)), links: make([]link, len(idx))}
		for k, i := range idx {
			c.ranked[k] = pool[i]
			c.links[k] = links[i]
		}
		clusters = append(clusters, c)
	}
	// Process clusters in an order that does not depend on input order so
	// identifier collisions resolve the same way on every run.
	sort.Slice(clusters, func(a, b int) bool {
		ca, cb := clusters[a].ranked[0], clusters[b].ranked[0]
		if !ca.DateStart.Equal(cb.DateStart) {
			return ca.DateStart.Before(cb.DateStart)
		}
		return outranks(ca, cb, e.trusted)
	})

	result := Result{
		Events: make([]event.CanonicalEvent, 0, len(clusters)),
		Stats:  Stats{Input: len(pool), MergedBySource: map[string]int{}},
	}
	used := make(map[string]struct{}, len(clusters))
	groupedEvents := 0
	for _, c := range clusters {
		canonical, witnesses := c.ranked[0], c.ranked[1:]
		merged := backfill(canonical, witnesses)
		merged.Verified = verified(merged, witnesses)

		id := CanonicalID(merged.Title, merged.DateStart, merged.LocationName)
		if _, taken := used[id]; taken {
			id = CanonicalID(merged.Title, merged.DateStart, merged.LocationName+"|"+merged.SourceEventURL)
			e.logger.Debug("canonical id collision",
				logging.String("title", merged.Title),
				logging.EventURL(merged.SourceEventURL),
			)
		}
		used[id] = struct{}{}

		sources := make([]event.SourceKey, 0, len(c.ranked))
		for _, member := range c.ranked {
			sources = append(sources, member.SourceKey())
		}
		result.Events = append(result.Events, event.CanonicalEvent{
			NormalizedEvent: merged,
			ID:              id,
			Sources:         sources,
		})

		if len(witnesses) == 0 {
			continue
		}
		group := event.DuplicateGroup{
			CanonicalID: id,
			DateStart:   canonical.DateStart,
			Members:     make([]event.GroupMember, 0, len(c.ranked)),
		}
		group.Members = append(group.Members, event.GroupMember{
			SourceKey:     canonical.SourceKey(),
			Role:          event.RoleCanonical,
			TitleScore:    1,
			LocationScore: 1,
		})
		for k, w := range witnesses {
			edge := c.links[k+1]
			group.Members = append(group.Members, event.GroupMember{
				SourceKey:     w.SourceKey(),
				Role:          event.RoleWitness,
				TitleScore:    edge.title,
				LocationScore: edge.location,
			})
			result.Stats.MergedBySource[w.SourceName]++
		}
		result.Groups = append(result.Groups, group)
		groupedEvents += group.Size()
		result.Stats.LargestGroup = max(result.Stats.LargestGroup, group.Size())
	}

	sort.SliceStable(result.Events, func(a, b int) bool {
		ea, eb := result.Events[a], result.Events[b]
		if !ea.DateStart.Equal(eb.DateStart) {
			return ea.DateStart.Before(eb.DateStart)
		}
		if c := compareQuality(ea.NormalizedEvent, eb.NormalizedEvent, e.trusted); c != 0 {
			return c > 0
		}
		return ea.ID < eb.ID
	})

	result.Stats.Canonical = len(result.Events)
	result.Stats.GroupsFormed = len(result.Groups)
	if len(result.Groups) > 0 {
		result.Stats.AverageGroupSize = float64(groupedEvents) / float64(len(result.Groups))
	}
	if len(result.Stats.MergedBySource) == 0 {
		result.Stats.MergedBySource = nil
	}
	e.logger.Info("deduplication complete",
		logging.Int("input", result.Stats.Input),
		logging.Int("canonical", result.Stats.Canonical),
		logging.Int("groups", result.Stats.GroupsFormed),
		logging.Float64("average_group_size", result.Stats.AverageGroupSize),
		logging.Int("largest_group", result.Stats.LargestGroup),
	)
	return result
}

// link is the strongest matching comparison an event took part in. A
// witness joined through another witness records that comparison rather
// than its score against the canonical record.
type link struct {
	title, location float64
}

func (l *link) keep(title, location float64) {
	if title+location > l.title+l.location {
		l.title, l.location = title, location
	}
}
