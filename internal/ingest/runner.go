package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"artify/internal/catalog"
	"artify/internal/classify"
	"artify/internal/config"
	"artify/internal/dedup"
	"artify/internal/event"
	"artify/internal/logging"
	"artify/internal/metrics"
	"artify/internal/normalize"
	"artify/internal/runlock"
	"artify/internal/services"
	"artify/internal/sources"
	"artify/internal/textutil"
	"artify/internal/ticket"
)

// Deps are the collaborators a Runner drives. Store, Registry and Classifier
// are required; a nil Tickets skips ticket resolution.
type Deps struct {
	Store      *catalog.Store
	Registry   *sources.Registry
	Classifier classify.Classifier
	Tickets    *ticket.Resolver
	Logger     *slog.Logger
	// Now defaults to time.Now. The run start anchors year-less dates.
	Now func() time.Time
}

// Options selects what a single run does.
type Options struct {
	// Sources restricts the run to the named sources. Empty runs every
	// enabled source.
	Sources []string
	DryRun  bool
}

// Runner executes ingestion runs.
type Runner struct {
	cfg        *config.Config
	store      *catalog.Store
	registry   *sources.Registry
	classifier classify.Classifier
	tickets    *ticket.Resolver
	rules      *classify.Rules
	engine     *dedup.Engine
	logger     *slog.Logger
	now        func() time.Time
}

// NewRunner wires a Runner from configuration.
func NewRunner(cfg *config.Config, deps Deps) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "ingest", "init", "config is required", nil)
	}
	if deps.Store == nil || deps.Registry == nil || deps.Classifier == nil {
		return nil, services.Wrap(services.ErrConfiguration, "ingest", "init", "store, registry and classifier are required", nil)
	}
	scorer, err := textutil.ScorerByName(cfg.Dedup.Scorer)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "ingest", "init", "dedup scorer", err)
	}
	// keyword rules answer for records whose source deadline has passed
	var rules *classify.Rules
	switch c := deps.Classifier.(type) {
	case *classify.Rules:
		rules = c
	case *classify.Chain:
		rules = c.Fallback()
	default:
		rules = classify.NewRules()
	}
	logger := logging.NewComponentLogger(deps.Logger, "ingest")
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		cfg:        cfg,
		store:      deps.Store,
		registry:   deps.Registry,
		classifier: deps.Classifier,
		tickets:    deps.Tickets,
		rules:      rules,
		engine: dedup.New(dedup.Options{
			TitleThreshold:    cfg.Dedup.TitleThreshold,
			LocationThreshold: cfg.Dedup.LocationThreshold,
			Scorer:            scorer,
			Trusted:           cfg.TrustedSources(),
			Logger:            deps.Logger,
		}),
		logger: logger,
		now:    now,
	}, nil
}

// SelectSources resolves names against the enabled sources in config order.
// An unknown or disabled name is a validation error.
func (r *Runner) SelectSources(names []string) ([]config.Source, error) {
	enabled := r.cfg.EnabledSources()
	if len(names) == 0 {
		if len(enabled) == 0 {
			return nil, services.Wrap(services.ErrValidation, "ingest", "select sources", "no enabled sources configured", nil)
		}
		return enabled, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			wanted[name] = true
		}
	}
	selected := make([]config.Source, 0, len(wanted))
	for _, src := range enabled {
		if wanted[src.Name] {
			selected = append(selected, src)
			delete(wanted, src.Name)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for name := range wanted {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return nil, services.Wrap(services.ErrValidation, "ingest", "select sources",
			fmt.Sprintf("unknown or disabled sources: %s", strings.Join(missing, ", ")), nil)
	}
	return selected, nil
}

// Run executes one ingestion run. The returned error is non-nil only for
// run-fatal conditions: invalid selection, a held run lock, or an unreachable
// catalog. Source failures are reported through the report's run logs.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	started := r.now()
	report := &Report{
		RunID:     uuid.NewString(),
		State:     event.RunPending,
		DryRun:    opts.DryRun,
		StartedAt: started,
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)

	selected, err := r.SelectSources(opts.Sources)
	if err != nil {
		return r.fail(report, err), err
	}

	if !opts.DryRun {
		lock, err := runlock.Acquire(r.cfg.LockPath())
		if err != nil {
			err = services.Wrap(services.ErrConfiguration, "ingest", "lock", "", err)
			return r.fail(report, err), err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("failed to release run lock", logging.Error(err))
			}
		}()
	}

	if err := r.store.Ping(ctx); err != nil {
		return r.fail(report, err), err
	}

	report.transition(event.RunRunning)
	logger.Info("ingestion run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("sources", len(selected)),
		logging.Bool("dry_run", opts.DryRun),
	)

	if r.tickets != nil {
		// ticket pages change between runs
		r.tickets.Invalidate()
	}

	base := normalize.New(normalize.Options{
		Reference: started,
		Location:  r.cfg.Location(),
	})
	outcomes := r.fanOut(ctx, selected, base)

	var pool []event.NormalizedEvent
	report.Sources = make([]event.SourceRunLog, 0, len(outcomes))
	for _, out := range outcomes {
		pool = append(pool, out.events...)
	}

	result := r.engine.Deduplicate(pool)
	report.Events = result.Events
	report.Dedup = result.Stats
	report.Groups = make([]event.DuplicateGroup, len(result.Groups))
	for i, group := range result.Groups {
		group.RunID = report.RunID
		report.Groups[i] = group
	}
	for _, out := range outcomes {
		out.log.RunID = report.RunID
		out.log.Merged = result.Stats.MergedBySource[out.log.Source]
		report.Sources = append(report.Sources, out.log)
	}

	// Events, groups and run logs commit together; an operator abort does
	// not discard sources that already finished.
	persistCtx := context.WithoutCancel(ctx)
	if err := r.persist(persistCtx, report); err != nil {
		r.observe(report)
		return r.fail(report, err), err
	}

	if report.FailedSources() > 0 {
		report.transition(event.RunPartiallyCompleted)
	} else {
		report.transition(event.RunCompleted)
	}
	report.FinishedAt = r.now()
	r.observe(report)

	totals := report.Totals()
	logger.Info("ingestion run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("state", string(report.State)),
		logging.Int("found", totals.Found),
		logging.Int("normalized", totals.Normalized),
		logging.Int("rejected", totals.Rejected),
		logging.Int("canonical", len(report.Events)),
		logging.Int("groups", report.Dedup.GroupsFormed),
		logging.Float64("average_group_size", report.Dedup.AverageGroupSize),
		logging.Int("new", report.Catalog.New),
		logging.Int("updated", report.Catalog.Updated),
		logging.Int("unchanged", report.Catalog.Unchanged),
		logging.Int("superseded", report.Catalog.Superseded),
		logging.Duration("duration", report.Duration()),
	)
	return report, nil
}

func (r *Runner) persist(ctx context.Context, report *Report) error {
	if report.DryRun {
		counts, err := catalog.NewPlanner(r.store).Plan(ctx, report.Events)
		if err != nil {
			return err
		}
		report.Catalog = counts
		return nil
	}
	counts, err := r.store.SaveRun(ctx, catalog.RunBatch{
		RunID:  report.RunID,
		Events: report.Events,
		Groups: report.Groups,
		Logs:   report.Sources,
	})
	if err != nil {
		return err
	}
	report.Catalog = counts
	return nil
}

func (r *Runner) fail(report *Report, err error) *Report {
	if report.State.Terminal() {
		return report
	}
	report.transition(event.RunFailed)
	report.Error = err.Error()
	report.FinishedAt = r.now()
	logging.ErrorWithContext(r.logger, "ingestion run failed", "run_failed",
		logging.String(logging.FieldRunID, report.RunID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.ErrorHint(err)),
		logging.String(logging.FieldImpact, "catalog not updated for this run"),
	)
	return report
}

func (r *Runner) observe(report *Report) {
	run := metrics.NewRun()
	for _, log := range report.Sources {
		run.ObserveSource(log)
	}
	run.ObserveDedup(report.Dedup.GroupsFormed, len(report.Events))
	run.ObserveUpserts(event.OutcomeNew, report.Catalog.New)
	run.ObserveUpserts(event.OutcomeUpdated, report.Catalog.Updated)
	run.ObserveUpserts(event.OutcomeUnchanged, report.Catalog.Unchanged)
	finished := report.FinishedAt
	if finished.IsZero() {
		finished = r.now()
	}
	run.Finish(report.State, finished.Sub(report.StartedAt), finished)
	if err := run.WriteTextfile(r.cfg.Metrics.Textfile); err != nil {
		logging.WarnWithContext(r.logger, "metrics textfile not written", "metrics_write_failed",
			logging.String("path", r.cfg.Metrics.Textfile),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run metrics unavailable to node_exporter"),
		)
	}
}

type sourceOutcome struct {
	events []event.NormalizedEvent
	log    event.SourceRunLog
}

// fanOut scrapes sources under the worker pool. Each worker writes only its
// own slot. Once ctx is canceled no further source is launched; sources
// already running finish their scrape under their own deadline and skip
// the remaining network enrichment.
func (r *Runner) fanOut(ctx context.Context, selected []config.Source, base *normalize.Normalizer) []sourceOutcome {
	outcomes := make([]sourceOutcome, len(selected))
	workers := r.cfg.Ingest.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(selected) {
		workers = len(selected)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = r.runSource(ctx, selected[idx], base)
			}
		}()
	}

	launched := 0
dispatch:
	for idx := range selected {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- idx:
			launched++
		}
	}
	close(jobs)
	wg.Wait()

	for idx := launched; idx < len(selected); idx++ {
		now := r.now()
		outcomes[idx] = sourceOutcome{log: event.SourceRunLog{
			Source:     selected[idx].Name,
			StartedAt:  now,
			FinishedAt: now,
			Status:     event.SourceFailed,
			Error:      "not started: " + context.Cause(ctx).Error(),
		}}
	}
	return outcomes
}

func (r *Runner) runSource(ctx context.Context, src config.Source, base *normalize.Normalizer) sourceOutcome {
	ctx = services.WithStage(services.WithSource(ctx, src.Name), "scrape")
	logger := logging.WithContext(ctx, r.logger)
	log := event.SourceRunLog{Source: src.Name, StartedAt: r.now()}

	// One deadline covers the scrape and every ticket or classifier call made
	// for its records. The scrape itself ignores operator aborts so a source
	// already talking to its site can return what it has.
	timeout := r.cfg.SourceTimeout(src)
	deadline := time.Now().Add(timeout)
	scrapeCtx, cancelScrape := context.WithDeadline(context.WithoutCancel(ctx), deadline)
	defer cancelScrape()
	enrichCtx, cancelEnrich := context.WithDeadline(ctx, deadline)
	defer cancelEnrich()

	records, err := r.scrape(scrapeCtx, src, timeout)
	log.Found = len(records)

	normalizer := base.ForSource(src.Locale, src.DateLayouts)
	events := make([]event.NormalizedEvent, 0, len(records))
	skipped := 0
	for _, raw := range records {
		raw.SourceName = src.Name
		ev, nerr := normalizer.Normalize(raw)
		if nerr != nil {
			log.Reject(normalize.Reason(nerr))
			logger.Debug("record rejected",
				logging.EventURL(raw.SourceEventURL),
				logging.String("reason", normalize.Reason(nerr)),
				logging.Error(nerr),
			)
			continue
		}
		if !r.enrich(enrichCtx, logger, &ev) {
			skipped++
		}
		events = append(events, ev)
	}
	log.Normalized = len(events)
	log.Status = services.SourceStatus(err, len(records))
	log.FinishedAt = r.now()

	if skipped > 0 {
		logging.WarnWithContext(logger, "enrichment cut short", "enrichment_skipped",
			logging.Int("records", skipped),
			logging.String("cause", context.Cause(enrichCtx).Error()),
			logging.String(logging.FieldErrorHint, "raise ingest.source_timeout_seconds or the source's timeout_seconds"),
			logging.String(logging.FieldImpact, "records classified by keyword rules without ticket links"),
		)
	}
	if err != nil {
		log.Error = err.Error()
		logging.WarnWithContext(logger, "source failed", "source_failed",
			logging.Error(err),
			logging.String("status", string(log.Status)),
			logging.Int("recovered", len(records)),
			logging.String(logging.FieldErrorHint, services.ErrorHint(err)),
			logging.String(logging.FieldImpact, "events from this source may be missing from the catalog"),
		)
	} else {
		logger.Info("source scraped",
			logging.String(logging.FieldEventType, "source_complete"),
			logging.Int("found", log.Found),
			logging.Int("normalized", log.Normalized),
			logging.Int("rejected", log.Rejected),
			logging.Duration("duration", log.Duration()),
		)
	}
	return sourceOutcome{events: events, log: log}
}

// scrape runs the adapter under ctx, which carries the source deadline. A
// deadline hit is reported as ErrTimeout; whatever the adapter returned is
// kept.
func (r *Runner) scrape(ctx context.Context, src config.Source, timeout time.Duration) ([]event.RawRecord, error) {
	scraper, err := r.registry.For(src)
	if err != nil {
		return nil, err
	}
	records, err := scraper.Scrape(ctx, src)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		err = services.Wrap(services.ErrTimeout, "scrape", src.Name, fmt.Sprintf("no answer within %s", timeout), err)
	}
	return records, err
}

// enrich classifies ev and resolves its ticket link. Failures leave the
// event as it was. Once ctx is done only the local keyword rules run and
// enrich reports false.
func (r *Runner) enrich(ctx context.Context, logger *slog.Logger, ev *event.NormalizedEvent) bool {
	if ctx.Err() != nil {
		r.classifyLocally(ev)
		return false
	}
	result, err := r.classifier.Classify(services.WithStage(ctx, "classify"), *ev)
	if err != nil {
		logger.Debug("classification failed",
			logging.EventURL(ev.SourceEventURL),
			logging.Error(err),
		)
		if ctx.Err() != nil {
			r.classifyLocally(ev)
			return false
		}
	} else {
		result.Apply(ev)
	}
	if r.tickets == nil {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	ticket := r.tickets.Resolve(services.WithStage(ctx, "ticket"), *ev)
	if !ticket.Found() && ctx.Err() != nil {
		return false
	}
	ticket.Apply(ev)
	return true
}

func (r *Runner) classifyLocally(ev *event.NormalizedEvent) {
	if result, err := r.rules.Classify(context.Background(), *ev); err == nil {
		result.Apply(ev)
	}
}
