package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/meetingsync/internal/meeting"
	"github.com/teemow/meetingsync/internal/store"
)

func newRecordsCmd() *cobra.Command {
	var (
		states []string
		since  time.Duration
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List tracked meetings",
		Long: `List tracked meetings, newest first, with their reconciliation state.

States: awaiting_window, awaiting_transcript, finalized.`,
		Example: `  meetingsync records --state awaiting_transcript
  meetingsync records --since 72h --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := recordFilter(states, since, limit, time.Now())
			if err != nil {
				return err
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			db, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close(db)

			records, err := store.NewRepository(db, nil).List(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}
			return printRecords(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "Only show records in these states (comma-separated)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only show meetings that started within this duration")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of records (0 for all)")

	return cmd
}

func recordFilter(states []string, since time.Duration, limit int, now time.Time) (store.ListFilter, error) {
	f := store.ListFilter{Limit: limit}
	for _, name := range states {
		s, err := meeting.ParseState(name)
		if err != nil {
			return f, err
		}
		f.States = append(f.States, s)
	}
	if since > 0 {
		f.Since = now.Add(-since)
	}
	return f, nil
}

func printRecords(w io.Writer, records []meeting.TrackingRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tOWNER\tSUBJECT\tSTATE\tTASK\tDELIVERED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n",
			r.Start.UTC().Format("2006-01-02 15:04"),
			r.CalendarOwner,
			truncate(r.Subject, 40),
			r.State(),
			r.TaskID,
			r.Delivered(),
		)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
