package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/teemow/meetingsync/internal/clickup"
	"github.com/teemow/meetingsync/internal/config"
	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/openai"
	"github.com/teemow/meetingsync/internal/provider"
	"github.com/teemow/meetingsync/internal/reconcile"
	"github.com/teemow/meetingsync/internal/store"
)

// job bundles the engine with the resources it holds open.
type job struct {
	engine *reconcile.Engine
	db     *gorm.DB
	instr  *instrumentation.Provider
	logger *slog.Logger
}

// newJob wires every collaborator from cfg. The caller must Close the job.
func newJob(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*job, error) {
	instrCfg := cfg.Metrics
	instrCfg.ServiceVersion = version
	instr, err := instrumentation.NewProvider(ctx, instrCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	logInstrumentation(logger, instr, instrCfg)
	j := &job{instr: instr, logger: logger}

	if err := j.wire(ctx, cfg); err != nil {
		_ = j.Close(context.Background())
		return nil, err
	}
	return j, nil
}

func logInstrumentation(logger *slog.Logger, p *instrumentation.Provider, cfg instrumentation.Config) {
	if !p.Enabled() {
		logger.Info("instrumentation disabled")
		return
	}
	logger.Info("instrumentation enabled",
		slog.String("metrics_exporter", cfg.MetricsExporter),
		slog.String("tracing_exporter", cfg.TracingExporter))
}

func (j *job) wire(ctx context.Context, cfg *config.Config) error {
	metrics := j.instr.Metrics()

	sources, err := provider.New(ctx, provider.Options{
		Name:    cfg.Provider,
		Graph:   cfg.Graph,
		Google:  cfg.Google,
		Metrics: metrics,
		Logger:  j.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to set up %s provider: %w", cfg.Provider, err)
	}

	tracker, err := clickup.NewClient(cfg.ClickUp, nil, metrics, j.logger)
	if err != nil {
		return err
	}

	summarizer, err := openai.New(cfg.OpenAI, metrics, j.logger)
	if err != nil {
		return err
	}

	j.db, err = store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	j.engine, err = reconcile.New(reconcile.Deps{
		Calendar:    sources.Calendar,
		Transcripts: sources.Transcripts,
		Matcher:     sources.Matcher,
		Summarizer:  summarizer,
		Tracker:     tracker,
		Store:       store.NewRepository(j.db, j.logger),
		Logger:      j.logger,
		Metrics:     metrics,
		Audit:       instrumentation.NewAuditLogger(j.logger, cfg.Metrics.AuditLogging),
	}, cfg.Engine)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	j.logger.Info("job configured",
		logging.Provider(sources.Name),
		slog.Int("categories", len(cfg.Engine.Categories)),
		slog.Int("static_users", len(cfg.Engine.Users)))
	return nil
}

// Close releases the database and flushes telemetry.
func (j *job) Close(ctx context.Context) error {
	return errors.Join(store.Close(j.db), j.instr.Shutdown(ctx))
}

// openStore opens the database for commands that need nothing else.
func openStore(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
