package dedup_test

import (
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"
	"time"

	"artify/internal/dedup"
	"artify/internal/event"
	"artify/internal/textutil"
)

func day(s string) time.Time {
	t, err := time.Parse(event.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func float(v float64) *float64 { return &v }

func mk(source, url, title, venue, date string) event.NormalizedEvent {
	return event.NormalizedEvent{
		Title:          title,
		LocationName:   venue,
		DateStart:      day(date),
		TimeOfDay:      event.TimeOfDayEvening,
		Currency:       "EUR",
		SourceName:     source,
		SourceEventURL: url,
	}
}

// tableScorer returns 1 for identical strings and the listed score for known
// pairs, 0 otherwise.
func tableScorer(pairs map[[2]string]float64) textutil.Scorer {
	return textutil.ScorerFunc(func(a, b string) float64 {
		if a == b {
			return 1
		}
		if v, ok := pairs[[2]string{a, b}]; ok {
			return v
		}
		return pairs[[2]string{b, a}]
	})
}

func TestSameConcertFromTwoSources(t *testing.T) {
	a := mk("agenda", "https://agenda.example/jazz", "Jazz au Sunset", "Sunset", "2025-03-14")
	b := mk("sunset", "https://sunset.example/jazz", "Jazz Au Sunset - Soirée", "Sunset-Sunside", "2025-03-14")
	b.PriceFrom, b.PriceTo = float(20), float(20)
	b.TicketURL = "https://sunset.example/billetterie/jazz"
	b.HasDirectTicketButton = true

	res := dedup.New(dedup.Options{}).Deduplicate([]event.NormalizedEvent{a, b})
	if len(res.Events) != 1 {
		t.Fatalf("expected one canonical event, got %d", len(res.Events))
	}
	got := res.Events[0]
	if got.SourceName != "sunset" || got.Title != "Jazz Au Sunset - Soirée" {
		t.Fatalf("expected ticketed record to win, got %+v", got.NormalizedEvent)
	}
	if got.PriceFrom == nil || *got.PriceFrom != 20 || !got.Verified {
		t.Fatalf("unexpected canonical fields %+v", got.NormalizedEvent)
	}
	if len(got.Sources) != 2 || got.Sources[0] != b.SourceKey() || got.Sources[1] != a.SourceKey() {
		t.Fatalf("unexpected sources %v", got.Sources)
	}
	if len(res.Groups) != 1 {
		t.Fatalf("expected one duplicate group, got %d", len(res.Groups))
	}
	group := res.Groups[0]
	if group.CanonicalID != got.ID || group.Size() != 2 {
		t.Fatalf("unexpected group %+v", group)
	}
	if group.Members[0].Role != event.RoleCanonical || group.Members[1].Role != event.RoleWitness {
		t.Fatalf("unexpected roles %+v", group.Members)
	}
	if group.Members[1].TitleScore < dedup.DefaultTitleThreshold || group.Members[1].LocationScore < dedup.DefaultLocationThreshold {
		t.Fatalf("witness scores below thresholds: %+v", group.Members[1])
	}
	if res.Stats.GroupsFormed != 1 || res.Stats.AverageGroupSize != 2 || res.Stats.LargestGroup != 2 || res.Stats.Merged() != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
	if res.Stats.MergedBySource["agenda"] != 1 {
		t.Fatalf("expected witness counted for agenda, got %v", res.Stats.MergedBySource)
	}
}

func TestDifferentDatesNeverMerge(t *testing.T) {
	a := mk("sunset", "https://sunset.example/jazz-14", "Jazz au Sunset", "Sunset", "2025-03-14")
	b := mk("sunset", "https://sunset.example/jazz-21", "Jazz au Sunset", "Sunset", "2025-03-21")

	res := dedup.New(dedup.Options{}).Deduplicate([]event.NormalizedEvent{b, a})
	if len(res.Events) != 2 || len(res.Groups) != 0 {
		t.Fatalf("expected two separate events, got %d events %d groups", len(res.Events), len(res.Groups))
	}
	if !res.Events[0].DateStart.Before(res.Events[1].DateStart) {
		t.Fatal("expected output sorted by start date")
	}
	if res.Events[0].ID == res.Events[1].ID {
		t.Fatal("expected distinct ids for distinct dates")
	}
	engine := dedup.New(dedup.Options{})
	if _, _, ok := engine.Similar(a, b); ok {
		t.Fatal("Similar matched across dates")
	}
}

func TestTransitiveChainMerges(t *testing.T) {
	scorer := tableScorer(map[[2]string]float64{
		{"Nuit A", "Nuit B"}: 0.90,
		{"Nuit B", "Nuit C"}: 0.87,
		{"Nuit A", "Nuit C"}: 0.70,
	})
	a := mk("s1", "https://s1.example/a", "Nuit A", "Sunset", "2025-03-14")
	b := mk("s2", "https://s2.example/b", "Nuit B", "Sunset", "2025-03-14")
	c := mk("s3", "https://s3.example/c", "Nuit C", "Sunset", "2025-03-14")

	res := dedup.New(dedup.Options{Scorer: scorer}).Deduplicate([]event.NormalizedEvent{a, c, b})
	if len(res.Events) != 1 || len(res.Groups) != 1 || res.Groups[0].Size() != 3 {
		t.Fatalf("expected one group of three, got %d events %+v", len(res.Events), res.Groups)
	}
	// c is linked to a only through b; its member entry carries the b-c edge
	scores := map[event.SourceKey]float64{}
	for _, m := range res.Groups[0].Members {
		scores[m.SourceKey] = m.TitleScore
	}
	if scores[b.SourceKey()] != 0.90 || scores[c.SourceKey()] != 0.87 {
		t.Fatalf("expected linking edge scores, got %v", scores)
	}
}

func TestTitleDriftChainsThroughMiddleListing(t *testing.T) {
	a := mk("s1", "https://s1.example/a", "Miles Davis Tribute Band", "New Morning", "2025-05-02")
	b := mk("s2", "https://s2.example/b", "Miles Davis Tribute Band Quintet", "New Morning", "2025-05-02")
	c := mk("s3", "https://s3.example/c", "Davis Tribute Band Quintet Live", "New Morning", "2025-05-02")
	other := mk("s4", "https://s4.example/d", "John Coltrane Love Supreme", "New Morning", "2025-05-02")

	scorer := textutil.FuzzyScorer{}
	if score := scorer.Score(a.Title, c.Title); score >= dedup.DefaultTitleThreshold {
		t.Fatalf("chain ends should not match directly, scored %.3f", score)
	}

	res := dedup.New(dedup.Options{}).Deduplicate([]event.NormalizedEvent{c, other, a, b})
	if len(res.Events) != 2 || len(res.Groups) != 1 || res.Groups[0].Size() != 3 {
		t.Fatalf("expected drifted titles in one group and the unrelated event alone, got %d events %+v", len(res.Events), res.Groups)
	}
	for _, m := range res.Groups[0].Members {
		if m.TitleScore < dedup.DefaultTitleThreshold {
			t.Fatalf("member %v recorded a below-threshold score %.3f", m.SourceKey, m.TitleScore)
		}
	}
	if res.Groups[0].Members[0].SourceKey != a.SourceKey() {
		t.Fatalf("expected %v as canonical, got %v", a.SourceKey(), res.Groups[0].Members[0].SourceKey)
	}
}

func TestThresholdsAreInclusive(t *testing.T) {
	scorer := tableScorer(map[[2]string]float64{
		{"Titre", "Titre bis"}:  0.85,
		{"Lieu", "Lieu bis"}:    0.75,
		{"Titre", "Titre ter"}:  0.8499,
		{"Lieu", "Lieu ter"}:    0.75,
		{"Titre", "Titre quat"}: 0.85,
		{"Lieu", "Lieu quat"}:   0.7499,
	})
	engine := dedup.New(dedup.Options{Scorer: scorer})
	base := mk("s1", "u1", "Titre", "Lieu", "2025-03-14")

	tests := []struct {
		title, venue string
		want         bool
	}{
		{"Titre bis", "Lieu bis", true},
		{"Titre ter", "Lieu ter", false},
		{"Titre quat", "Lieu quat", false},
	}
	for _, tt := range tests {
		other := mk("s2", "u2", tt.title, tt.venue, "2025-03-14")
		if _, _, got := engine.Similar(base, other); got != tt.want {
			t.Errorf("Similar(%q, %q) = %v, want %v", tt.title, tt.venue, got, tt.want)
		}
	}
}

func TestEmptyLocationsNeverMatch(t *testing.T) {
	a := mk("s1", "u1", "Jazz", "", "2025-03-14")
	b := mk("s2", "u2", "Jazz", "", "2025-03-14")
	if _, location, ok := dedup.New(dedup.Options{}).Similar(a, b); ok || location != 0 {
		t.Fatalf("expected no match without locations, got %v/%v", location, ok)
	}
}

func TestCanonicalRanking(t *testing.T) {
	withImage := mk("agg", "https://agg.example/z", "Expo Monet", "Orangerie", "2025-04-01")
	withImage.ImageURL = "https://agg.example/monet.jpg"
	longer := mk("agg", "https://agg.example/y", "Expo Monet", "Orangerie", "2025-04-01")
	longer.Description = "Une longue description de l'exposition."
	trusted := mk("orangerie", "https://orangerie.example/monet", "Expo Monet", "Orangerie", "2025-04-01")
	plainA := mk("agg", "https://agg.example/a", "Expo Monet", "Orangerie", "2025-04-01")
	plainB := mk("agg2", "https://agg.example/a", "Expo Monet", "Orangerie", "2025-04-01")

	tests := []struct {
		name   string
		events []event.NormalizedEvent
		want   event.SourceKey
	}{
		{"image beats description", []event.NormalizedEvent{longer, withImage}, withImage.SourceKey()},
		{"description beats trusted", []event.NormalizedEvent{trusted, longer}, longer.SourceKey()},
		{"trusted beats aggregator", []event.NormalizedEvent{plainA, trusted}, trusted.SourceKey()},
		{"url then source name", []event.NormalizedEvent{plainB, plainA}, plainA.SourceKey()},
	}
	engine := dedup.New(dedup.Options{Trusted: map[string]bool{"orangerie": true}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := engine.Deduplicate(tt.events)
			if len(res.Events) != 1 {
				t.Fatalf("expected merge, got %d events", len(res.Events))
			}
			if got := res.Events[0].SourceKey(); got != tt.want {
				t.Fatalf("canonical = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackfillFromWitnesses(t *testing.T) {
	canonical := mk("sunset", "https://sunset.example/jazz", "Jazz au Sunset", "Sunset", "2025-03-14")
	canonical.HasDirectTicketButton = true
	canonical.TicketURL = "https://sunset.example/billetterie/jazz"
	canonical.Tags = []string{"jazz"}

	first := mk("agg", "https://agg.example/jazz", "Jazz au Sunset", "Sunset", "2025-03-14")
	first.ImageURL = "https://agg.example/jazz.jpg"
	first.Latitude, first.Longitude = float(48.86), float(2.35)
	first.Tags = []string{"live", "jazz"}
	first.TimeStart, first.TimeOfDay = "21:00", event.TimeOfDayEvening

	second := mk("other", "https://other.example/jazz", "Jazz au Sunset", "Sunset", "2025-03-14")
	second.Latitude, second.Longitude = float(1), float(1)
	second.Address = "Rue des Lombards"
	arr := 1
	second.Arrondissement = &arr
	second.Tags = []string{"club"}

	res := dedup.New(dedup.Options{}).Deduplicate([]event.NormalizedEvent{second, first, canonical})
	if len(res.Events) != 1 {
		t.Fatalf("expected merge, got %d events", len(res.Events))
	}
	got := res.Events[0]
	if got.SourceName != "sunset" {
		t.Fatalf("unexpected canonical %s", got.SourceName)
	}
	if got.ImageURL != first.ImageURL || got.TimeStart != "21:00" {
		t.Fatalf("expected image and time from first witness, got %+v", got.NormalizedEvent)
	}
	if *got.Latitude != 48.86 || *got.Longitude != 2.35 {
		t.Fatalf("expected coordinates from the higher ranked witness, got %v/%v", *got.Latitude, *got.Longitude)
	}
	if got.Address != second.Address || got.Arrondissement == nil || *got.Arrondissement != 1 {
		t.Fatalf("expected address from second witness, got %+v", got.NormalizedEvent)
	}
	if !slices.Equal(got.Tags, []string{"club", "jazz", "live"}) {
		t.Fatalf("unexpected tags %v", got.Tags)
	}
	if canonical.ImageURL != "" || len(canonical.Tags) != 1 {
		t.Fatal("input event was mutated")
	}
}

func TestContradictingWitnessBlocksVerification(t *testing.T) {
	a := mk("sunset", "https://sunset.example/jazz", "Jazz au Sunset", "Sunset", "2025-03-14")
	a.HasDirectTicketButton = true
	a.PriceFrom, a.PriceTo = float(20), float(20)
	b := mk("agg", "https://agg.example/jazz", "Jazz au Sunset", "Sunset", "2025-03-14")
	b.PriceFrom, b.PriceTo = float(25), float(25)

	res := dedup.New(dedup.Options{}).Deduplicate([]event.NormalizedEvent{a, b})
	if len(res.Events) != 1 || res.Events[0].Verified {
		t.Fatalf("expected unverified canonical, got %+v", res.Events)
	}

	end := day("2025-03-20")
	otherEnd := day("2025-03-22")
	c := mk("sunset", "https://sunset.example/expo", "Expo", "Sunset", "2025-03-14")
	c.DateEnd = &end
	d := mk("agg", "https://agg.example/expo", "Expo", "Sunset", "2025-03-14")
	d.DateEnd = &otherEnd
	res = dedup.New(dedup.Options{}).Deduplicate([]event.NormalizedEvent{c, d})
	if len(res.Events) != 1 || res.Events[0].Verified {
		t.Fatalf("expected conflicting end dates to block verification, got %+v", res.Events)
	}

	single := mk("sunset", "https://sunset.example/solo", "Solo", "Sunset", "2025-03-15")
	res = dedup.New(dedup.Options{}).Deduplicate([]event.NormalizedEvent{single})
	if len(res.Events) != 1 || !res.Events[0].Verified || len(res.Groups) != 0 {
		t.Fatalf("expected verified singleton without group, got %+v", res)
	}
}

func TestNeverDropsEventsAndIsOrderIndependent(t *testing.T) {
	var pool []event.NormalizedEvent
	titles := []string{"Jazz au Sunset", "Jazz Au Sunset - Soirée", "Expo Monet", "Atelier poterie", "Yoga au parc"}
	venues := []string{"Sunset", "Sunset-Sunside", "Orangerie", "La Fabrique", "Parc Monceau"}
	dates := []string{"2025-03-14", "2025-03-15"}
	sources := []string{"a", "b", "c"}
	for _, src := range sources {
		for i, title := range titles {
			for _, date := range dates {
				pool = append(pool, mk(src, "https://"+src+".example/"+date+"/"+title, title, venues[i], date))
			}
		}
	}
	engine := dedup.New(dedup.Options{Trusted: map[string]bool{"b": true}})
	first := engine.Deduplicate(pool)

	seen := make(map[event.SourceKey]int)
	for _, ev := range first.Events {
		for _, key := range ev.Sources {
			seen[key]++
		}
	}
	if len(seen) != len(pool) {
		t.Fatalf("expected every input represented, got %d of %d", len(seen), len(pool))
	}
	for key, n := range seen {
		if n != 1 {
			t.Fatalf("%v represented %d times", key, n)
		}
	}
	// the two Sunset titles merge, so 4 events per date remain
	if len(first.Events) != 8 {
		t.Fatalf("expected 8 canonical events, got %d", len(first.Events))
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for range 5 {
		shuffled := slices.Clone(pool)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		again := engine.Deduplicate(shuffled)
		if !reflect.DeepEqual(first.Events, again.Events) || !reflect.DeepEqual(first.Groups, again.Groups) {
			t.Fatal("result depends on input order")
		}
	}
}

func TestCanonicalIDIsStable(t *testing.T) {
	date := day("2025-03-14")
	id := dedup.CanonicalID("Jazz au Sunset", date, "Sunset")
	if len(id) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", id)
	}
	if other := dedup.CanonicalID("  JAZZ AU  SUNSET ", date, "sunset"); other != id {
		t.Fatalf("expected folded inputs to share id, got %s vs %s", other, id)
	}
	if other := dedup.CanonicalID("Jazz au Sunset", day("2025-03-15"), "Sunset"); other == id {
		t.Fatal("expected date to change id")
	}
}
