package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/reconcile"
)

func newRunCmd() *cobra.Command {
	var (
		timeout    time.Duration
		showConfig bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile calendar events once and exit",
		Long: `Run a single reconciliation pass: list each adviser's calendar, register new
client meetings in ClickUp, and deliver summaries for meetings whose transcript
has become available.

The command exits non-zero when the run could not start (configuration,
credentials, users list). Failures of individual events are logged and
retried on the next run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if timeout > 0 {
				cfg.Schedule.Timeout = timeout
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if showConfig {
				fmt.Fprintln(cmd.ErrOrStderr(), cfg.Summary())
			}

			logger, closer, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if cfg.Schedule.Timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, cfg.Schedule.Timeout)
				defer cancel()
			}

			j, err := newJob(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := j.Close(shutdownCtx); err != nil {
					logger.Warn("failed to release job resources", logging.Err(err))
				}
			}()

			report, err := j.engine.Run(ctx)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the run after this long (default: schedule.timeout)")
	cmd.Flags().BoolVar(&showConfig, "show-config", false, "Print the effective configuration with secrets masked")

	return cmd
}

// printReport writes a one-line run summary followed by outcome counts.
func printReport(w io.Writer, r *reconcile.RunReport) {
	fmt.Fprintf(w, "run %s: %d users (%d failed), %d events in %s\n",
		r.RunID, r.Users, r.UserFailures, r.Events, r.Duration.Truncate(time.Millisecond))

	outcomes := make([]string, 0, len(r.Outcomes))
	for o := range r.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %-20s %d\n", o, r.Outcomes[o])
	}
}
