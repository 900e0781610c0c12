package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"artify/internal/catalog"
	"artify/internal/event"
)

type sourceView struct {
	Name     string              `json:"name"`
	Kind     string              `json:"kind"`
	Target   string              `json:"target"`
	Locale   string              `json:"locale"`
	Enabled  bool                `json:"enabled"`
	Trusted  bool                `json:"trusted"`
	RenderJS bool                `json:"render_js"`
	Timeout  string              `json:"timeout"`
	LastRun  *event.SourceRunLog `json:"last_run,omitempty"`
}

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect configured sources",
	}
	sourcesCmd.AddCommand(newSourcesListCommand(ctx))
	return sourcesCmd
}

func newSourcesListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured sources with their last run outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var latest map[string]event.SourceRunLog
			if err := ctx.withStore(cmd.Context(), func(store *catalog.Store) error {
				var err error
				latest, err = store.LatestRunLogs(cmd.Context())
				return err
			}); err != nil {
				return err
			}

			trusted := cfg.TrustedSources()
			views := make([]sourceView, 0, len(cfg.Sources))
			for _, src := range cfg.Sources {
				target := src.URL
				if target == "" {
					target = src.Path
				}
				view := sourceView{
					Name:     src.Name,
					Kind:     src.Kind,
					Target:   target,
					Locale:   src.Locale,
					Enabled:  !src.Disabled,
					Trusted:  trusted[src.Name],
					RenderJS: src.RenderJS,
					Timeout:  cfg.SourceTimeout(src).String(),
				}
				if log, ok := latest[src.Name]; ok {
					view.LastRun = &log
				}
				views = append(views, view)
			}

			if jsonOutput {
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No sources configured")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				status, found, when := "-", "", ""
				if v.LastRun != nil {
					status = string(v.LastRun.Status)
					found = strconv.Itoa(v.LastRun.Found)
					when = v.LastRun.FinishedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					v.Name, v.Kind, v.Target, v.Locale, yesNo(v.Enabled), yesNo(v.Trusted), status, found, when,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Kind", "Target", "Locale", "Enabled", "Trusted", "Last status", "Found", "Last run"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				nil,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print sources as JSON")
	return cmd
}
