package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"artify/internal/config"
	"artify/internal/event"
	"artify/internal/services"
)

// Adapter kinds.
const (
	KindFixture = "fixture"
	KindJSONLD  = "jsonld"
)

// FixtureFile is the on-disk layout read by the fixture adapter. Files ending
// in .json are decoded as JSON, everything else as YAML.
//
// FailAfter and Error replay a source that breaks part way: after FailAfter
// records the adapter stops and returns Error. DelayMillis holds the scrape
// open before returning, honouring cancellation.
type FixtureFile struct {
	Events      []FixtureRecord `yaml:"events" json:"events"`
	FailAfter   int             `yaml:"fail_after" json:"fail_after"`
	Error       string          `yaml:"error" json:"error"`
	DelayMillis int             `yaml:"delay_ms" json:"delay_ms"`
}

// FixtureRecord is one listing in a fixture file.
type FixtureRecord struct {
	URL          string   `yaml:"url" json:"url"`
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Date         string   `yaml:"date" json:"date"`
	DateEnd      string   `yaml:"date_end" json:"date_end"`
	Time         string   `yaml:"time" json:"time"`
	TimeEnd      string   `yaml:"time_end" json:"time_end"`
	Price        string   `yaml:"price" json:"price"`
	Venue        string   `yaml:"venue" json:"venue"`
	Address      string   `yaml:"address" json:"address"`
	Image        string   `yaml:"image" json:"image"`
	Category     string   `yaml:"category" json:"category"`
	Tags         []string `yaml:"tags" json:"tags"`
	TicketURL    string   `yaml:"ticket_url" json:"ticket_url"`
	TicketButton bool     `yaml:"ticket_button" json:"ticket_button"`
	Latitude     *float64 `yaml:"latitude" json:"latitude"`
	Longitude    *float64 `yaml:"longitude" json:"longitude"`
	Organizer    string   `yaml:"organizer" json:"organizer"`
}

// Fixture replays listings stored in a local file.
type Fixture struct {
	logger *slog.Logger
}

// NewFixture constructs the fixture adapter.
func NewFixture(logger *slog.Logger) *Fixture {
	return &Fixture{logger: logger}
}

// Scrape reads src.Path.
func (f *Fixture) Scrape(ctx context.Context, src config.Source) ([]event.RawRecord, error) {
	file, err := LoadFixture(src.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scrape", src.Name, "load fixture", err)
	}
	if file.DelayMillis > 0 {
		timer := time.NewTimer(time.Duration(file.DelayMillis) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	records := make([]event.RawRecord, 0, len(file.Events))
	for i, rec := range file.Events {
		if file.Error != "" && file.FailAfter > 0 && i >= file.FailAfter {
			break
		}
		records = append(records, rec.raw(src.Name, src.Path, i))
	}
	if file.Error != "" {
		return records, services.Wrap(services.ErrExternal, "scrape", src.Name, "", errors.New(file.Error))
	}
	f.logger.Debug("fixture loaded", slog.String("source", src.Name), slog.Int("records", len(records)))
	return records, nil
}

// LoadFixture decodes a fixture file.
func LoadFixture(path string) (*FixtureFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file FixtureFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &file, nil
}

func (r FixtureRecord) raw(source, path string, index int) event.RawRecord {
	url := strings.TrimSpace(r.URL)
	if url == "" {
		url = fmt.Sprintf("file://%s#%d", path, index)
	}
	return event.RawRecord{
		SourceName:      source,
		SourceEventURL:  url,
		Title:           r.Title,
		Description:     r.Description,
		DateText:        r.Date,
		DateEndText:     r.DateEnd,
		TimeText:        r.Time,
		TimeEndText:     r.TimeEnd,
		PriceText:       r.Price,
		LocationName:    r.Venue,
		Address:         r.Address,
		ImageURL:        r.Image,
		RawCategory:     r.Category,
		Tags:            r.Tags,
		TicketURL:       r.TicketURL,
		HasTicketButton: r.TicketButton,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Organizer:       r.Organizer,
	}
}
