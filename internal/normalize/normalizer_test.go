package normalize_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"artify/internal/event"
	"artify/internal/normalize"
	"artify/internal/services"
)

var reference = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func newNormalizer() *normalize.Normalizer {
	return normalize.New(normalize.Options{Reference: reference})
}

func baseRecord() event.RawRecord {
	return event.RawRecord{
		SourceName:     "sunset",
		SourceEventURL: "https://sunset.example/events/jazz",
		Title:          "  Jazz   au Sunset ",
		DateText:       "14 mars 2025",
		LocationName:   "Sunset",
		Address:        "60 rue des Lombards 75001",
	}
}

func TestNormalizeDates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"iso", "2025-03-14", "2025-03-14"},
		{"iso datetime", "2025-03-14T20:30:00Z", "2025-03-14"},
		{"slash day first", "14/03/2025", "2025-03-14"},
		{"dash day first", "14-03-2025", "2025-03-14"},
		{"french month", "14 mars 2025", "2025-03-14"},
		{"french accents", "3 février 2026", "2026-02-03"},
		{"french abbreviation", "7 déc. 2025", "2025-12-07"},
		{"weekday prefix", "Vendredi 14 mars 2025", "2025-03-14"},
		{"premier", "1er avril 2025", "2025-04-01"},
		{"english", "March 14, 2025", "2025-03-14"},
		{"no year", "20 avril", "2025-04-20"},
		{"no year within rollover", "10 février", "2025-02-10"},
		{"no year rolls to next year", "5 décembre", "2025-12-05"},
		{"no year far past rolls", "15 novembre", "2025-11-15"},
		{"range start", "du 14 au 16 mars 2025", "2025-03-14"},
	}
	n := newNormalizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := baseRecord()
			raw.DateText = tt.text
			got, err := n.Normalize(raw)
			if err != nil {
				t.Fatalf("Normalize(%q): %v", tt.text, err)
			}
			if got.DateKey() != tt.want {
				t.Fatalf("Normalize(%q) date = %s, want %s", tt.text, got.DateKey(), tt.want)
			}
		})
	}
}

func TestYearlessDateFarBeforeReferenceRollsOver(t *testing.T) {
	n := normalize.New(normalize.Options{Reference: time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)})
	raw := baseRecord()
	raw.DateText = "10 janvier"
	got, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.DateKey() != "2026-01-10" {
		t.Fatalf("expected next January, got %s", got.DateKey())
	}

	raw.DateText = "1 octobre"
	got, err = n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.DateKey() != "2025-10-01" {
		t.Fatalf("expected recent past date kept, got %s", got.DateKey())
	}
}

func TestDateRangeSetsEnd(t *testing.T) {
	raw := baseRecord()
	raw.DateText = "du 14 au 16 mars 2025"
	got, err := newNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.DateEnd == nil || got.DateEnd.Format(event.DateLayout) != "2025-03-16" {
		t.Fatalf("expected end date 2025-03-16, got %v", got.DateEnd)
	}
}

func TestDateEndBeforeStartDropped(t *testing.T) {
	raw := baseRecord()
	raw.DateEndText = "2025-03-10"
	got, err := newNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.DateEnd != nil {
		t.Fatalf("expected end before start to be dropped, got %v", got.DateEnd)
	}
}

func TestSourceLayoutsAndLocale(t *testing.T) {
	base := newNormalizer()

	en := base.ForSource("en", nil)
	raw := baseRecord()
	raw.DateText = "03/14/2025"
	got, err := en.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize en: %v", err)
	}
	if got.DateKey() != "2025-03-14" {
		t.Fatalf("expected month-first parse, got %s", got.DateKey())
	}
	if _, err := base.Normalize(raw); err == nil {
		t.Fatal("expected day-first parse of 03/14/2025 to fail")
	}

	custom := base.ForSource("", []string{"20060102"})
	raw.DateText = "20250314"
	got, err = custom.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize layout: %v", err)
	}
	if got.DateKey() != "2025-03-14" {
		t.Fatalf("expected layout parse, got %s", got.DateKey())
	}
}

func TestMalformedDate(t *testing.T) {
	for _, text := range []string{"", "bientôt", "31/02/2025", "prochainement en mars"} {
		raw := baseRecord()
		raw.DateText = text
		_, err := newNormalizer().Normalize(raw)
		var malformed *normalize.MalformedDateError
		if !errors.As(err, &malformed) {
			t.Fatalf("Normalize(%q) error = %v, want MalformedDateError", text, err)
		}
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected validation marker on %v", err)
		}
		if normalize.Reason(err) != normalize.ReasonMalformedDate {
			t.Fatalf("unexpected reason %q", normalize.Reason(err))
		}
	}
}

func TestIncompleteRecord(t *testing.T) {
	tests := []struct {
		name  string
		raw   func() event.RawRecord
		field string
	}{
		{"blank title", func() event.RawRecord { r := baseRecord(); r.Title = "   "; return r }, "title"},
		{"blank venue", func() event.RawRecord { r := baseRecord(); r.LocationName = "\t"; return r }, "location_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newNormalizer().Normalize(tt.raw())
			var incomplete *normalize.IncompleteRecordError
			if !errors.As(err, &incomplete) {
				t.Fatalf("expected IncompleteRecordError, got %v", err)
			}
			if incomplete.Field != tt.field {
				t.Fatalf("field = %q, want %q", incomplete.Field, tt.field)
			}
			if normalize.Reason(err) != normalize.ReasonIncompleteRecord {
				t.Fatalf("unexpected reason %q", normalize.Reason(err))
			}
		})
	}
}

func TestNormalizeTimes(t *testing.T) {
	tests := []struct {
		name      string
		timeText  string
		endText   string
		wantStart string
		wantEnd   string
		wantTOD   event.TimeOfDay
	}{
		{"french hour minute", "19h30", "", "19:30", "", event.TimeOfDayEvening},
		{"french hour", "à 20h", "", "20:00", "", event.TimeOfDayEvening},
		{"colon", "14:00", "", "14:00", "", event.TimeOfDayDay},
		{"seconds", "23:30:00", "", "23:30", "", event.TimeOfDayNight},
		{"pm", "7pm", "", "19:00", "", event.TimeOfDayEvening},
		{"pm with minutes", "from 7:30 pm", "", "19:30", "", event.TimeOfDayEvening},
		{"noon", "12pm", "", "12:00", "", event.TimeOfDayDay},
		{"midnight", "12am", "", "00:00", "", event.TimeOfDayNight},
		{"range", "19h - 22h30", "", "19:00", "22:30", event.TimeOfDayEvening},
		{"french range", "de 10h à 18h", "", "10:00", "18:00", event.TimeOfDayDay},
		{"explicit end", "dès 21h", "2h", "21:00", "02:00", event.TimeOfDayEvening},
		{"missing", "", "", "", "", event.TimeOfDayEvening},
		{"garbage", "en soirée", "", "", "", event.TimeOfDayEvening},
		{"out of range", "25h", "", "", "", event.TimeOfDayEvening},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := baseRecord()
			raw.TimeText = tt.timeText
			raw.TimeEndText = tt.endText
			got, err := newNormalizer().Normalize(raw)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got.TimeStart != tt.wantStart || got.TimeEnd != tt.wantEnd {
				t.Fatalf("times = %q/%q, want %q/%q", got.TimeStart, got.TimeEnd, tt.wantStart, tt.wantEnd)
			}
			if got.TimeOfDay != tt.wantTOD {
				t.Fatalf("time of day = %q, want %q", got.TimeOfDay, tt.wantTOD)
			}
		})
	}
}

func TestTimeFromISODateTime(t *testing.T) {
	raw := baseRecord()
	raw.DateText = "2025-03-14T20:30:00"
	got, err := newNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.TimeStart != "20:30" {
		t.Fatalf("expected time from datetime, got %q", got.TimeStart)
	}
}

func ptr(v float64) *float64 { return &v }

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text     string
		from, to *float64
		free     bool
	}{
		{"Gratuit", ptr(0), nil, true},
		{"Entrée libre", ptr(0), nil, true},
		{"FREE", ptr(0), nil, true},
		{"0€", ptr(0), nil, true},
		{"0 €", ptr(0), nil, true},
		{"25-80€", ptr(25), ptr(80), false},
		{"De 12,50 € à 30 €", ptr(12.5), ptr(30), false},
		{"20€", ptr(20), ptr(20), false},
		{"10€", ptr(10), ptr(10), false},
		{"Prix libre selon vos moyens", ptr(0), nil, true},
		{"voir site", nil, nil, false},
		{"", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := normalize.ParsePrice(tt.text)
			if !equalPtr(got.From, tt.from) || !equalPtr(got.To, tt.to) || got.Free != tt.free {
				t.Fatalf("ParsePrice(%q) = %v/%v/%v, want %v/%v/%v", tt.text,
					deref(got.From), deref(got.To), got.Free, deref(tt.from), deref(tt.to), tt.free)
			}
		})
	}
}

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func TestArrondissement(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"60 rue des Lombards, 75001 Paris", 1, true},
		{"Rue Beethoven 75116", 16, true},
		{"Bastille, 11e arrondissement", 11, true},
		{"Montmartre 18ème", 18, true},
		{"Louvre 1er arr.", 1, true},
		{"Paris 20", 20, true},
		{"Paris 21", 0, false},
		{"Versailles 78000", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := normalize.Arrondissement(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Arrondissement(%q) = %d/%v, want %d/%v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeAddressAppendsCity(t *testing.T) {
	if got := normalize.NormalizeAddress(" 12 rue Oberkampf  75011 "); got != "12 rue Oberkampf 75011, Paris" {
		t.Fatalf("unexpected address %q", got)
	}
	if got := normalize.NormalizeAddress("12 rue Oberkampf, 75011 Paris"); got != "12 rue Oberkampf, 75011 Paris" {
		t.Fatalf("address already naming Paris changed: %q", got)
	}
	if got := normalize.NormalizeAddress("1 place de la Gare, Lyon"); got != "1 place de la Gare, Lyon" {
		t.Fatalf("address outside Paris changed: %q", got)
	}
}

func TestNormalizeFullRecord(t *testing.T) {
	lat, lon := 48.86, 2.35
	raw := event.RawRecord{
		SourceName:      " sunset ",
		SourceEventURL:  "https://sunset.example/events/jazz",
		Title:           "Jazz Au Sunset - Soirée",
		Description:     "Un quartet\n\nde légende.",
		DateText:        "Vendredi 14 mars 2025",
		TimeText:        "21h",
		PriceText:       "20€",
		LocationName:    "Sunset-Sunside",
		Address:         "60 rue des Lombards 75001",
		ImageURL:        " https://sunset.example/img.jpg ",
		RawCategory:     "Jazz",
		Tags:            []string{"Jazz", " live ", "jazz", ""},
		TicketURL:       "https://billetweb.fr/jazz",
		HasTicketButton: true,
		Latitude:        &lat,
		Longitude:       &lon,
	}
	got, err := newNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	arr := 1
	price := 20.0
	want := event.NormalizedEvent{
		Title:                 "Jazz Au Sunset - Soirée",
		Description:           "Un quartet de légende.",
		Category:              "musique",
		Tags:                  []string{"jazz", "live"},
		DateStart:             time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		TimeStart:             "21:00",
		TimeOfDay:             event.TimeOfDayEvening,
		LocationName:          "Sunset-Sunside",
		Address:               "60 rue des Lombards 75001, Paris",
		Arrondissement:        &arr,
		Latitude:              &lat,
		Longitude:             &lon,
		PriceFrom:             &price,
		PriceTo:               &price,
		Currency:              "EUR",
		ImageURL:              "https://sunset.example/img.jpg",
		SourceName:            "sunset",
		SourceEventURL:        "https://sunset.example/events/jazz",
		TicketURL:             "https://billetweb.fr/jazz",
		HasDirectTicketButton: true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected normalized event:\n got %+v\nwant %+v", got, want)
	}
	if got.Verified {
		t.Fatal("normalized events must start unverified")
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := newNormalizer()
	raw := baseRecord()
	raw.DateText = "12 avril"
	raw.PriceText = "15 - 25 €"
	first, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	second, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestInvalidCoordinatesDropped(t *testing.T) {
	bad := 200.0
	raw := baseRecord()
	raw.Latitude = &bad
	raw.Longitude = &bad
	got, err := newNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Latitude != nil {
		t.Fatalf("expected latitude dropped, got %v", *got.Latitude)
	}
	if got.Longitude != nil {
		t.Fatalf("expected longitude dropped, got %v", *got.Longitude)
	}
}
