package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"artify/internal/event"
	"artify/internal/metrics"
)

func TestRunTextfile(t *testing.T) {
	run := metrics.NewRun()
	started := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	run.ObserveSource(event.SourceRunLog{
		Source:        "sunset",
		StartedAt:     started,
		FinishedAt:    started.Add(1500 * time.Millisecond),
		Found:         5,
		Normalized:    4,
		Rejected:      1,
		Merged:        2,
		RejectReasons: map[string]int{"malformed_date": 1},
		Status:        event.SourceSucceeded,
	})
	run.ObserveDedup(2, 7)
	run.ObserveUpserts(event.OutcomeNew, 3)
	run.ObserveUpserts(event.OutcomeUnchanged, 4)
	run.ObserveUpserts(event.OutcomeUpdated, 0)
	run.Finish(event.RunCompleted, 3*time.Second, started.Add(3*time.Second))

	if n := testutil.CollectAndCount(run.Registry()); n == 0 {
		t.Fatal("registry gathered no metrics")
	}

	path := filepath.Join(t.TempDir(), "textfile", "artify.prom")
	if err := run.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`artify_source_records_found{source="sunset"} 5`,
		`artify_source_records_normalized{source="sunset"} 4`,
		`artify_source_records_rejected{reason="malformed_date",source="sunset"} 1`,
		`artify_source_records_merged{source="sunset"} 2`,
		`artify_source_duration_seconds{source="sunset"} 1.5`,
		`artify_source_status{source="sunset",status="success"} 1`,
		`artify_dedup_groups 2`,
		`artify_dedup_canonical_events 7`,
		`artify_upsert_total{outcome="new"} 3`,
		`artify_upsert_total{outcome="unchanged"} 4`,
		`artify_run_duration_seconds 3`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q\n%s", want, text)
		}
	}
	if strings.Contains(text, `outcome="updated"`) {
		t.Error("zero upsert counts should not create a series")
	}
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	if err := metrics.NewRun().WriteTextfile(""); err != nil {
		t.Fatalf("empty path should be a no-op, got %v", err)
	}
}
