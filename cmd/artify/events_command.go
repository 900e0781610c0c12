package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"artify/internal/catalog"
	"artify/internal/event"
	"artify/internal/services"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Query the canonical event catalog",
	}
	eventsCmd.AddCommand(newEventsListCommand(ctx))
	eventsCmd.AddCommand(newEventsShowCommand(ctx))
	return eventsCmd
}

func newEventsListCommand(ctx *commandContext) *cobra.Command {
	var (
		category       string
		from, to       string
		freeOnly       bool
		verifiedOnly   bool
		arrondissement int
		source         string
		limit          int
		jsonOutput     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List canonical events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := catalog.Filter{
				Category:       strings.TrimSpace(category),
				FreeOnly:       freeOnly,
				VerifiedOnly:   verifiedOnly,
				Arrondissement: arrondissement,
				Source:         strings.TrimSpace(source),
				Limit:          limit,
			}
			if filter.From, err = parseDateFlag("from", from, cfg.Location()); err != nil {
				return err
			}
			if filter.To, err = parseDateFlag("to", to, cfg.Location()); err != nil {
				return err
			}

			var events []event.CanonicalEvent
			if err := ctx.withStore(cmd.Context(), func(store *catalog.Store) error {
				var err error
				events, err = store.ListEvents(cmd.Context(), filter)
				return err
			}); err != nil {
				return err
			}

			if jsonOutput {
				if events == nil {
					events = []event.CanonicalEvent{}
				}
				return writeJSON(cmd, events)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No events match")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				rows = append(rows, []string{
					ev.ID,
					ev.DateKey(),
					ev.TimeStart,
					ev.Title,
					ev.LocationName,
					ev.Category,
					formatPrice(ev.NormalizedEvent),
					strconv.Itoa(len(ev.Sources)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Date", "Time", "Title", "Venue", "Category", "Price", "Sources"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				nil,
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only events in this category")
	cmd.Flags().StringVar(&from, "from", "", "Only events running on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Only events starting on or before this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&freeOnly, "free", false, "Only free events")
	cmd.Flags().BoolVar(&verifiedOnly, "verified", false, "Only verified events")
	cmd.Flags().IntVar(&arrondissement, "arrondissement", 0, "Only events in this Paris arrondissement (1-20)")
	cmd.Flags().StringVar(&source, "source", "", "Only events reported by this source")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of events to list")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print events as JSON")
	return cmd
}

func newEventsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var sourceName string

	cmd := &cobra.Command{
		Use:   "show ID | --source NAME URL",
		Short: "Show one canonical event with its witnesses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := strings.TrimSpace(args[0])
			var ev *event.CanonicalEvent
			if err := ctx.withStore(cmd.Context(), func(store *catalog.Store) error {
				id := ref
				if sourceName != "" {
					key := event.SourceKey{Source: strings.TrimSpace(sourceName), URL: ref}
					owner, ok, err := store.ResolveSource(cmd.Context(), key)
					if err != nil {
						return err
					}
					if !ok {
						return services.Wrap(services.ErrNotFound, "events", "show", fmt.Sprintf("no event holds %s from %s", ref, key.Source), nil)
					}
					id = owner
				}
				var err error
				ev, err = store.Get(cmd.Context(), id)
				return err
			}); err != nil {
				return err
			}
			if ev == nil {
				return services.Wrap(services.ErrNotFound, "events", "show", fmt.Sprintf("no event with id %s", ref), nil)
			}
			if jsonOutput {
				return writeJSON(cmd, ev)
			}
			printEvent(cmd.OutOrStdout(), ev)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the event as JSON")
	cmd.Flags().StringVar(&sourceName, "source", "", "Treat the argument as a listing URL from this source")
	return cmd
}

func printEvent(out io.Writer, ev *event.CanonicalEvent) {
	fields := [][2]string{
		{"ID", ev.ID},
		{"Title", ev.Title},
		{"Category", strings.Trim(ev.Category+" / "+ev.SubCategory, " /")},
		{"Date", formatDates(ev.NormalizedEvent)},
		{"Time", strings.Trim(ev.TimeStart+" - "+ev.TimeEnd, " -")},
		{"Venue", ev.LocationName},
		{"Address", ev.Address},
		{"Price", formatPrice(ev.NormalizedEvent)},
		{"Tickets", ev.TicketURL},
		{"Organizer", ev.Organizer},
		{"Image", ev.ImageURL},
		{"Verified", yesNo(ev.Verified)},
		{"Updated", ev.UpdatedAt.Local().Format(time.DateTime)},
	}
	if ev.Arrondissement != nil {
		fields = append(fields, [2]string{"Arrondissement", strconv.Itoa(*ev.Arrondissement)})
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(out, "%-15s %s\n", f[0]+":", f[1])
	}
	if ev.Description != "" {
		fmt.Fprintf(out, "\n%s\n", ev.Description)
	}
	if len(ev.Sources) > 0 {
		rows := make([][]string, 0, len(ev.Sources))
		for _, key := range ev.Sources {
			rows = append(rows, []string{key.Source, key.URL})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Source", "URL"}, rows, nil, nil))
	}
}

func formatDates(ev event.NormalizedEvent) string {
	start := ev.DateKey()
	if ev.DateEnd == nil || ev.DateEnd.Format(event.DateLayout) == start {
		return start
	}
	return start + " to " + ev.DateEnd.Format(event.DateLayout)
}

func formatPrice(ev event.NormalizedEvent) string {
	switch {
	case ev.IsFree:
		return "free"
	case ev.PriceFrom == nil:
		return ""
	case ev.PriceTo != nil && *ev.PriceTo > *ev.PriceFrom:
		return fmt.Sprintf("%s-%s %s", trimFloat(*ev.PriceFrom), trimFloat(*ev.PriceTo), ev.Currency)
	default:
		return fmt.Sprintf("%s %s", trimFloat(*ev.PriceFrom), ev.Currency)
	}
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseDateFlag(name, value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.ParseInLocation(event.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, services.Wrap(services.ErrValidation, "events", "list", fmt.Sprintf("--%s must be YYYY-MM-DD", name), err)
	}
	return parsed, nil
}
