package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/meeting"
)

// Deps are the collaborators of an Engine. Metrics and Audit are optional.
type Deps struct {
	Calendar    CalendarSource
	Transcripts TranscriptSource
	Matcher     meeting.Matcher
	Summarizer  Summarizer
	Tracker     TaskTracker
	Store       RecordStore

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

// Engine reconciles calendar events with tracking records.
type Engine struct {
	calendar    CalendarSource
	transcripts TranscriptSource
	matcher     meeting.Matcher
	summarizer  Summarizer
	tracker     TaskTracker
	store       RecordStore

	cfg    Config
	filter *meeting.CategoryFilter
	now    func() time.Time

	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// New creates an Engine.
func New(deps Deps, cfg Config) (*Engine, error) {
	switch {
	case deps.Calendar == nil:
		return nil, errors.New("calendar source is required")
	case deps.Transcripts == nil:
		return nil, errors.New("transcript source is required")
	case deps.Matcher == nil:
		return nil, errors.New("matcher is required")
	case deps.Summarizer == nil:
		return nil, errors.New("summarizer is required")
	case deps.Tracker == nil:
		return nil, errors.New("task tracker is required")
	case deps.Store == nil:
		return nil, errors.New("record store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		calendar:    deps.Calendar,
		transcripts: deps.Transcripts,
		matcher:     deps.Matcher,
		summarizer:  deps.Summarizer,
		tracker:     deps.Tracker,
		store:       deps.Store,
		cfg:         cfg,
		filter:      meeting.NewCategoryFilter(cfg.Categories...),
		now:         func() time.Time { return now().UTC() },
		logger:      logging.WithService(logger, "reconcile"),
		metrics:     deps.Metrics,
		audit:       deps.Audit,
	}, nil
}

// owner is the calendar being processed.
type owner struct {
	email   string
	adviser string
}

// Run performs one reconciliation pass over every user's calendar. Failures
// scoped to a user or an event are logged and counted; Run only returns an
// error when the user list cannot be determined or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) (*RunReport, error) {
	started := e.now()
	report := newRunReport(uuid.NewString(), started)
	logger := logging.WithRun(e.logger, report.RunID)

	ctx, span := instrumentation.StartSpan(ctx, "reconcile.run",
		instrumentation.NewSpanAttributeBuilder().WithRun(report.RunID).Build()...)

	err := e.run(ctx, logger, report)

	report.Duration = e.now().Sub(started)
	e.metrics.RecordRun(ctx, instrumentation.StatusOf(err), report.Duration)
	instrumentation.EndSpan(span, err)

	if err != nil {
		logger.Error("reconciliation run failed", append(report.LogAttrs(), logging.Err(err))...)
		return report, err
	}
	logger.Info("reconciliation run finished", report.LogAttrs()...)
	return report, nil
}

func (e *Engine) run(ctx context.Context, logger *slog.Logger, report *RunReport) error {
	users, err := e.users(ctx)
	if err != nil {
		return fmt.Errorf("failed to determine users: %w", err)
	}
	report.Users = len(users)

	start, end := e.cfg.eventWindow(report.Started)
	logger.Info("reconciliation run started",
		slog.Int("users", len(users)),
		slog.Time("window_start", start),
		slog.Time("window_end", end))

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}

		userLogger := logger.With(logging.UserHash(user), logging.Domain(user))
		adviser, err := e.adviserName(ctx, userLogger, user)
		if err != nil {
			report.UserFailures++
			userLogger.Error("failed to resolve adviser display name", logging.Err(err))
			continue
		}
		o := owner{email: user, adviser: adviser}

		events, err := e.calendar.ListEvents(ctx, user, start, end)
		if err != nil {
			report.UserFailures++
			userLogger.Error("failed to list calendar events", logging.Err(err))
			continue
		}
		userLogger.Debug("listed calendar events", slog.Int("count", len(events)))

		for _, ev := range events {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.add(e.processEvent(ctx, userLogger, report.RunID, o, ev))
		}
	}
	return nil
}

func (e *Engine) users(ctx context.Context) ([]string, error) {
	if len(e.cfg.Users) > 0 {
		return e.cfg.Users, nil
	}
	return e.tracker.ListUsers(ctx)
}

// adviserName resolves the owner's display name. A user unknown to the
// directory falls back to the address; any other failure is returned so the
// user's events wait for the next run.
func (e *Engine) adviserName(ctx context.Context, logger *slog.Logger, user string) (string, error) {
	name, err := e.calendar.ResolveDirectoryID(ctx, user, meeting.FieldDisplayName)
	switch {
	case errors.Is(err, meeting.ErrNotFound):
		logger.Warn("adviser not found in directory, using address")
		return user, nil
	case err != nil:
		return "", err
	case name == "":
		logger.Warn("adviser has no display name, using address")
		return user, nil
	}
	return name, nil
}

// processEvent advances one event by at most one lifecycle step and returns
// the outcome.
func (e *Engine) processEvent(ctx context.Context, logger *slog.Logger, runID string, o owner, ev meeting.Event) string {
	logger = logging.WithEvent(logger, ev.ID)

	if !e.filter.Matches(ev.Categories) {
		logger.Debug("event not tagged with a client category", slog.String("subject", ev.Subject))
		e.metrics.RecordEvent(ctx, instrumentation.OutcomeSkipped, o.email)
		return instrumentation.OutcomeSkipped
	}

	ctx, span := instrumentation.StartSpan(ctx, "reconcile.event")
	defer span.End()

	outcome, state, err := e.dispatch(ctx, logger, runID, o, ev)

	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithRun(runID).
		WithEvent(ev.ID).
		WithState(state.String()).
		WithUserHash(logging.AnonymizeEmail(o.email)).
		Build()...)
	instrumentation.SetSpanOutcome(span, outcome)
	e.metrics.RecordEvent(ctx, outcome, o.email)

	if err != nil {
		logger.Error("event abandoned for this run",
			logging.State(state),
			slog.String("subject", ev.Subject),
			logging.Err(err))
		return outcome
	}
	logger.Info("event processed",
		logging.State(state),
		slog.String("outcome", outcome),
		slog.String("subject", ev.Subject))
	return outcome
}

// dispatch looks up the stored state and runs the matching step.
func (e *Engine) dispatch(ctx context.Context, logger *slog.Logger, runID string, o owner, ev meeting.Event) (string, meeting.State, error) {
	rec, found, err := e.store.Get(ctx, ev.ID)
	if err != nil {
		return instrumentation.OutcomeFailed, meeting.StateCreated, fmt.Errorf("failed to load tracking record: %w", err)
	}

	state := meeting.StateCreated
	if found {
		state = rec.State()
	}

	var outcome string
	switch state {
	case meeting.StateCreated:
		outcome, err = e.register(ctx, runID, o, ev)
	case meeting.StateFinalized:
		outcome = instrumentation.OutcomeFinalized
	default:
		outcome, err = e.advance(ctx, logger, runID, o, rec, ev)
	}
	return outcome, state, err
}

// register creates the tracker task and the tracking record for a new event.
// Nothing is stored when the task cannot be created, so the next run retries.
func (e *Engine) register(ctx context.Context, runID string, o owner, ev meeting.Event) (string, error) {
	se := instrumentation.NewSideEffect(instrumentation.ServiceClickUp, instrumentation.OperationCreateTask).
		ForEvent(runID, ev.ID, o.email).
		WithSpanContext(ctx)
	taskID, err := e.tracker.CreateTask(ctx, meeting.NewTaskDetails(ev, o.adviser))
	e.audit.Log(se.WithTarget(taskID).Complete(err))
	if err != nil {
		return instrumentation.OutcomeFailed, fmt.Errorf("failed to create tracker task: %w", err)
	}

	elapsed := meeting.WindowElapsed(false, ev.End, e.now(), e.cfg.WindowOffset)
	rec := meeting.NewTrackingRecord(ev, o.email, taskID, elapsed)
	if err := e.store.Insert(ctx, rec); err != nil {
		return instrumentation.OutcomeFailed, fmt.Errorf("failed to insert tracking record for task %s: %w", taskID, err)
	}
	return instrumentation.OutcomeCreated, nil
}

// advance refreshes a pending record and, once the transcript window has
// elapsed, runs the transcript step.
func (e *Engine) advance(ctx context.Context, logger *slog.Logger, runID string, o owner, rec meeting.TrackingRecord, ev meeting.Event) (string, error) {
	rec.Refresh(ev)
	rec.TranscriptWindowElapsed = meeting.WindowElapsed(rec.TranscriptWindowElapsed, ev.End, e.now(), e.cfg.WindowOffset)
	if err := e.store.Update(ctx, rec); err != nil {
		return instrumentation.OutcomeFailed, fmt.Errorf("failed to refresh tracking record: %w", err)
	}
	if !rec.TranscriptWindowElapsed {
		return instrumentation.OutcomeWaiting, nil
	}

	transcript, err := e.acquireTranscript(ctx, logger, o, ev)
	if err != nil {
		return instrumentation.OutcomeFailed, err
	}
	if transcript == "" {
		return e.notFound(ctx, logger, runID, o, rec)
	}
	return e.deliver(ctx, logger, runID, o, rec, ev, transcript)
}

// notFound counts a missed transcript and finalizes the record once the
// configured number of attempts is used up.
func (e *Engine) notFound(ctx context.Context, logger *slog.Logger, runID string, o owner, rec meeting.TrackingRecord) (string, error) {
	rec.TranscriptAttempts++
	if rec.TranscriptAttempts < e.cfg.TranscriptAttempts {
		if err := e.store.Update(ctx, rec); err != nil {
			return instrumentation.OutcomeFailed, fmt.Errorf("failed to record transcript attempt: %w", err)
		}
		logger.Info("transcript not found yet",
			slog.Int("attempt", rec.TranscriptAttempts),
			slog.Int("max_attempts", e.cfg.TranscriptAttempts))
		return instrumentation.OutcomeRetryLater, nil
	}

	if err := e.propagate(ctx, runID, o, rec, meeting.NotFoundProgress()); err != nil {
		return instrumentation.OutcomeFailed, err
	}

	rec.TranscriptRetrieved = true
	rec.SummaryDelivered = false
	rec.Summary = meeting.NotFoundSummary
	if err := e.store.Update(ctx, rec); err != nil {
		return instrumentation.OutcomeFailed, fmt.Errorf("failed to finalize tracking record: %w", err)
	}
	return instrumentation.OutcomeNotFound, nil
}

// propagate writes progress fields and the matching status to the event task.
func (e *Engine) propagate(ctx context.Context, runID string, o owner, rec meeting.TrackingRecord, p meeting.Progress) error {
	se := instrumentation.NewSideEffect(instrumentation.ServiceClickUp, instrumentation.OperationUpdateFields).
		ForEvent(runID, rec.EventID, o.email).
		WithTarget(rec.TaskID).
		WithSpanContext(ctx)
	err := e.tracker.UpdateTaskFields(ctx, rec.TaskID, p)
	e.audit.Log(se.Complete(err))
	if err != nil {
		return fmt.Errorf("failed to update fields of task %s: %w", rec.TaskID, err)
	}

	se = instrumentation.NewSideEffect(instrumentation.ServiceClickUp, instrumentation.OperationSetStatus).
		ForEvent(runID, rec.EventID, o.email).
		WithTarget(rec.TaskID).
		WithSpanContext(ctx)
	err = e.tracker.SetTaskStatus(ctx, rec.TaskID, p.Status(), p.Summary)
	e.audit.Log(se.Complete(err))
	if err != nil {
		return fmt.Errorf("failed to set status of task %s: %w", rec.TaskID, err)
	}
	return nil
}
