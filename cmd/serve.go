package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/meetingsync/internal/config"
	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/reconcile"
	"github.com/teemow/meetingsync/internal/server"
	"github.com/teemow/meetingsync/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		schedule       string
		runOnStart     bool
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run reconciliation on a schedule",
		Long: `Run reconciliation on a cron schedule until interrupted.

Runs never overlap: when a run is still in progress at the next tick, the
tick is skipped. Metrics (/metrics) and health probes (/healthz, /readyz,
/healthz/detailed) are served on a dedicated port.

The schedule is a standard five-field cron expression evaluated in UTC
(default: every 30 minutes).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("schedule") {
				cfg.Schedule.Cron = schedule
			}
			if cmd.Flags().Changed("run-on-start") {
				cfg.Schedule.RunOnStart = runOnStart
			}
			if cmd.Flags().Changed("metrics-enabled") {
				cfg.Server.Enabled = metricsEnabled
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Server.Addr = metricsAddr
			}
			if cfg.Schedule.Cron == "" {
				cfg.Schedule.Cron = config.DefaultSchedule
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", config.DefaultSchedule, "Cron expression for runs. Can also use MEETINGSYNC_SCHEDULE env var.")
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run once immediately on startup")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Serve metrics and health probes on a dedicated port")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultAddr, "Metrics and health server address")

	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	logger, closer, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	j, err := newJob(shutdownCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := j.Close(ctx); err != nil {
			logger.Warn("failed to release job resources", logging.Err(err))
		}
	}()

	state := server.NewRunState(shutdownCtx)
	health := server.NewHealthChecker(state, map[string]server.CheckFunc{
		"database": func(ctx context.Context) error { return store.Ping(ctx, j.db) },
	})

	runner := &scheduledRunner{
		run:     j.engine.Run,
		state:   state,
		timeout: cfg.Schedule.Timeout,
		logger:  logger,
	}

	adapter := logging.NewSchedulerAdapter(logger)
	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	if _, err := scheduler.AddFunc(cfg.Schedule.Cron, runner.tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule.Cron, err)
	}

	g, gctx := errgroup.WithContext(shutdownCtx)

	var ops *server.Server
	if cfg.Server.Enabled {
		ops, err = server.New(cfg.Server, j.instr, health, logger)
		if err != nil {
			return fmt.Errorf("failed to create operations server: %w", err)
		}
		g.Go(ops.Start)
	}

	scheduler.Start()
	logger.Info("scheduler started", slog.String("schedule", cfg.Schedule.Cron))
	if cfg.Schedule.RunOnStart {
		runner.startIn(g)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, stopping scheduler")
		health.SetReady(false)
		state.Shutdown()

		stopCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		select {
		case <-scheduler.Stop().Done():
		case <-stopCtx.Done():
			logger.Warn("timed out waiting for the running reconciliation to finish")
		}
		if ops != nil {
			return ops.Shutdown(stopCtx)
		}
		return nil
	})

	return g.Wait()
}

// scheduledRunner executes one reconciliation per tick and records it.
type scheduledRunner struct {
	run     func(context.Context) (*reconcile.RunReport, error)
	state   *server.RunState
	timeout time.Duration
	logger  *slog.Logger
}

// startIn runs one tick inside g so that g.Wait covers it.
func (r *scheduledRunner) startIn(g *errgroup.Group) {
	g.Go(func() error {
		r.tick()
		return nil
	})
}

func (r *scheduledRunner) tick() {
	if !r.state.Begin() {
		r.logger.Info("skipping tick, a run is already in progress or shutting down")
		return
	}

	ctx := r.state.Context()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	report, err := r.run(ctx)
	r.state.End(report, err)
	if err != nil {
		r.logger.Error("scheduled run failed", logging.Err(err))
	}
}
