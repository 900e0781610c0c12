package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"artify/internal/catalog"
	"artify/internal/classify"
	"artify/internal/config"
	"artify/internal/event"
	"artify/internal/ingest"
	"artify/internal/pagefetch"
	"artify/internal/sources"
	"artify/internal/ticket"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var sourceNames []string
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Scrape sources, deduplicate, and update the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()

			store, err := catalog.OpenConfig(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runner, cleanup, err := buildRunner(cfg, store, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := runner.Run(cmd.Context(), ingest.Options{
				Sources: sourceNames,
				DryRun:  dryRun || cfg.Ingest.DryRun,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
			}
			return reportExit(report)
		},
	}

	cmd.Flags().StringSliceVar(&sourceNames, "source", nil, "Only run the named sources (comma separated or repeated)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing to the catalog")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run report as JSON")
	return cmd
}

// buildRunner wires the ingestion collaborators from configuration. The
// returned cleanup releases the headless browser when one was started.
func buildRunner(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*ingest.Runner, func(), error) {
	listings := pagefetch.NewHTTP(pagefetch.HTTPOptions{
		Timeout:   time.Duration(cfg.Ingest.SourceTimeoutSeconds) * time.Second,
		UserAgent: cfg.Ticket.UserAgent,
	})
	deps := sources.Deps{HTTP: listings, Logger: logger}
	cleanup := func() {}
	if needsBrowser(cfg) {
		browser := pagefetch.NewBrowser(pagefetch.BrowserOptions{
			ExecPath:  cfg.Browser.ExecPath,
			Timeout:   time.Duration(cfg.Browser.TimeoutSeconds) * time.Second,
			Settle:    time.Duration(cfg.Browser.SettleMillis) * time.Millisecond,
			UserAgent: cfg.Ticket.UserAgent,
		})
		deps.Browser = browser
		cleanup = browser.Close
	}

	classifier, err := classify.FromConfig(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var tickets *ticket.Resolver
	if cfg.Ticket.Enabled {
		pages := pagefetch.NewHTTP(pagefetch.HTTPOptions{
			Timeout:   time.Duration(cfg.Ticket.TimeoutSeconds) * time.Second,
			UserAgent: cfg.Ticket.UserAgent,
		})
		tickets = ticket.NewResolver(pages, pages, ticket.Options{
			Timeout:      time.Duration(cfg.Ticket.TimeoutSeconds) * time.Second,
			MaxRedirects: cfg.Ticket.MaxRedirects,
			CacheTTL:     time.Duration(cfg.Ticket.CacheTTLSeconds) * time.Second,
		}, logger)
	}

	runner, err := ingest.NewRunner(cfg, ingest.Deps{
		Store:      store,
		Registry:   sources.NewRegistry(deps),
		Classifier: classifier,
		Tickets:    tickets,
		Logger:     logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return runner, cleanup, nil
}

func needsBrowser(cfg *config.Config) bool {
	for _, src := range cfg.EnabledSources() {
		if src.RenderJS {
			return true
		}
	}
	return false
}

func reportExit(report *ingest.Report) error {
	switch {
	case report.AllSourcesFailed():
		return &exitError{code: exitAllSourceFailed, msg: "every selected source failed"}
	case report.State == event.RunPartiallyCompleted:
		return &exitError{code: exitPartial, msg: fmt.Sprintf("%d source(s) failed; canonical set still produced", report.FailedSources())}
	default:
		return nil
	}
}

func printReport(out io.Writer, report *ingest.Report, colorize bool) {
	mode := "write"
	if report.DryRun {
		mode = "dry run"
	}
	fmt.Fprintln(out, renderStatusLine("Run "+shortID(report.RunID), runStateKind(report.State),
		fmt.Sprintf("%s (%s, %s)", report.State, mode, report.Duration().Round(time.Millisecond)), colorize))

	rows := make([][]string, 0, len(report.Sources))
	for _, log := range report.Sources {
		rows = append(rows, []string{
			log.Source,
			string(log.Status),
			strconv.Itoa(log.Found),
			strconv.Itoa(log.Normalized),
			strconv.Itoa(log.Rejected),
			strconv.Itoa(log.Merged),
			log.Duration().Round(time.Millisecond).String(),
			rejectSummary(log.RejectReasons),
		})
	}
	totals := report.Totals()
	footer := []string{"total", "", strconv.Itoa(totals.Found), strconv.Itoa(totals.Normalized),
		strconv.Itoa(totals.Rejected), strconv.Itoa(totals.Merged), "", ""}
	fmt.Fprintln(out, renderTable(
		[]string{"Source", "Status", "Found", "Normalized", "Rejected", "Merged", "Duration", "Reject reasons"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
		footer,
	))

	for _, log := range report.Sources {
		if log.Error != "" {
			fmt.Fprintln(out, renderStatusLine(log.Source, sourceStatusKind(log.Status), log.Error, colorize))
		}
	}

	fmt.Fprintln(out, renderStatusLine("Deduplication", statusInfo,
		fmt.Sprintf("%d canonical from %d records, %d groups, average size %.2f, largest %d",
			report.Dedup.Canonical, report.Dedup.Input, report.Dedup.GroupsFormed,
			report.Dedup.AverageGroupSize, report.Dedup.LargestGroup), colorize))
	verb := "Catalog"
	if report.DryRun {
		verb = "Catalog (planned)"
	}
	summary := fmt.Sprintf("%d new, %d updated, %d unchanged", report.Catalog.New, report.Catalog.Updated, report.Catalog.Unchanged)
	if report.Catalog.Superseded > 0 {
		summary += fmt.Sprintf(", %d superseded", report.Catalog.Superseded)
	}
	fmt.Fprintln(out, renderStatusLine(verb, statusInfo, summary, colorize))
}

func rejectSummary(reasons map[string]int) string {
	if len(reasons) == 0 {
		return ""
	}
	keys := make([]string, 0, len(reasons))
	for key := range reasons {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, reasons[key]))
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
