package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/meeting"
)

// errDirectoryID marks an owner whose directory identifier cannot be resolved.
var errDirectoryID = errors.New("calendar owner has no directory identifier")

// acquireTranscript locates the event's transcript and returns its filtered
// text. An empty string with a nil error means the transcript was not found.
// Errors are transient and leave the record untouched.
func (e *Engine) acquireTranscript(ctx context.Context, logger *slog.Logger, o owner, ev meeting.Event) (string, error) {
	directoryID, err := e.calendar.ResolveDirectoryID(ctx, o.email, meeting.FieldID)
	if errors.Is(err, meeting.ErrNotFound) || (err == nil && directoryID == "") {
		return "", errDirectoryID
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory identifier: %w", err)
	}

	start, end := e.cfg.transcriptWindow(ev.Start, e.now())
	refs, err := e.transcripts.ListTranscripts(ctx, directoryID, start, end)
	if err != nil {
		return "", fmt.Errorf("failed to list transcripts: %w", err)
	}

	ref, ok := e.match(ev.JoinURL, refs)
	if !ok {
		logger.Info("no transcript matches the meeting", slog.Int("candidates", len(refs)))
		return "", nil
	}

	raw, err := e.transcripts.FetchTranscriptText(ctx, ref.ContentURL)
	if err != nil {
		logger.Warn("failed to fetch transcript body, treating as not found",
			slog.String("transcript_id", ref.ID),
			logging.Err(err))
		return "", nil
	}

	text := meeting.FilterTranscript(raw)
	if text == "" {
		logger.Info("transcript has no spoken lines", slog.String("transcript_id", ref.ID))
	}
	return text, nil
}

// match returns the first listing entry belonging to the meeting.
func (e *Engine) match(joinURL string, refs []meeting.TranscriptRef) (meeting.TranscriptRef, bool) {
	for _, ref := range refs {
		if e.matcher.Match(joinURL, ref.MeetingID) {
			return ref, true
		}
	}
	return meeting.TranscriptRef{}, false
}
