package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/meeting"
)

// deliver summarizes the transcript, files the summary and finalizes the
// record. Any failure before the record is written leaves it pending.
func (e *Engine) deliver(ctx context.Context, logger *slog.Logger, runID string, o owner, rec meeting.TrackingRecord, ev meeting.Event, transcript string) (string, error) {
	summary, err := e.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return instrumentation.OutcomeFailed, fmt.Errorf("failed to summarize transcript: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return instrumentation.OutcomeFailed, errors.New("summarizer returned an empty summary")
	}

	containerID, err := e.destination(ctx, logger, o, ev)
	if err != nil {
		return instrumentation.OutcomeFailed, err
	}

	se := instrumentation.NewSideEffect(instrumentation.ServiceClickUp, instrumentation.OperationCreateNote).
		ForEvent(runID, ev.ID, o.email).
		WithTarget(containerID).
		WithSpanContext(ctx)
	_, err = e.tracker.CreateTaskInContainer(ctx, containerID, meeting.NoteTitle(ev.Subject), summary)
	e.audit.Log(se.Complete(err))
	if err != nil {
		return instrumentation.OutcomeFailed, fmt.Errorf("failed to file summary in container %s: %w", containerID, err)
	}

	if err := e.propagate(ctx, runID, o, rec, meeting.DeliveredProgress(summary)); err != nil {
		return instrumentation.OutcomeFailed, err
	}

	rec.TranscriptRetrieved = true
	rec.SummaryDelivered = true
	rec.Summary = summary
	if err := e.store.Update(ctx, rec); err != nil {
		return instrumentation.OutcomeFailed, fmt.Errorf("failed to finalize tracking record: %w", err)
	}
	return instrumentation.OutcomeDelivered, nil
}

// destination picks the container that receives the summary: the client's
// container when an attendee belongs to a known client, otherwise the
// adviser's fallback container.
func (e *Engine) destination(ctx context.Context, logger *slog.Logger, o owner, ev meeting.Event) (string, error) {
	client, err := e.findClient(ctx, meeting.ClientAttendees(ev.Attendees, ev.OrganizerEmail, o.email))
	if err != nil {
		return "", err
	}

	if client != "" {
		for _, category := range meeting.ClientCategories {
			id, err := e.tracker.FindContainerByTaskName(ctx, client, category)
			if errors.Is(err, meeting.ErrNotFound) {
				continue
			}
			if err != nil {
				return "", fmt.Errorf("failed to look up container of client %q: %w", client, err)
			}
			logger.Info("filing summary under client container",
				slog.String("client", client),
				slog.String("category", string(category)))
			return id, nil
		}
		logger.Info("client has no container, using fallback", slog.String("client", client))
	}

	id := e.cfg.fallbackContainer(o.adviser)
	logger.Info("filing summary in fallback container",
		slog.String("adviser", o.adviser),
		slog.Bool("others", id == e.cfg.OthersContainer))
	return id, nil
}

// findClient returns the client task name of the first attendee known to the
// tracker, searching each category in order, or "" when none is.
func (e *Engine) findClient(ctx context.Context, attendees []string) (string, error) {
	for _, email := range attendees {
		for _, category := range meeting.ClientCategories {
			name, err := e.tracker.FindTaskByAttendeeEmail(ctx, email, category)
			if errors.Is(err, meeting.ErrNotFound) {
				continue
			}
			if err != nil {
				return "", fmt.Errorf("failed to look up client of attendee: %w", err)
			}
			if name != "" {
				return name, nil
			}
		}
	}
	return "", nil
}
