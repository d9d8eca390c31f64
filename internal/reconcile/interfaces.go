package reconcile

import (
	"context"
	"time"

	"github.com/teemow/meetingsync/internal/meeting"
)

// CalendarSource lists calendar events and resolves directory attributes.
type CalendarSource interface {
	// ListEvents returns the user's events overlapping [start, end].
	ListEvents(ctx context.Context, user string, start, end time.Time) ([]meeting.Event, error)

	// ResolveDirectoryID returns the requested directory attribute for an
	// address. It returns meeting.ErrNotFound when the directory has no entry.
	ResolveDirectoryID(ctx context.Context, emailOrID string, field meeting.DirectoryField) (string, error)
}

// TranscriptSource lists and fetches meeting transcripts.
type TranscriptSource interface {
	// ListTranscripts returns transcripts of meetings organized by the
	// directory user within [start, end].
	ListTranscripts(ctx context.Context, directoryID string, start, end time.Time) ([]meeting.TranscriptRef, error)

	// FetchTranscriptText returns the raw transcript body.
	FetchTranscriptText(ctx context.Context, contentURL string) (string, error)
}

// Summarizer turns filtered transcript text into a structured summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// TaskTracker is the external task tracker.
type TaskTracker interface {
	// CreateTask creates the event task and returns its ID.
	CreateTask(ctx context.Context, details meeting.TaskDetails) (string, error)

	UpdateTaskFields(ctx context.Context, taskID string, progress meeting.Progress) error

	// SetTaskStatus moves the task to status and replaces its description.
	SetTaskStatus(ctx context.Context, taskID string, status meeting.TaskStatus, description string) error

	// FindTaskByAttendeeEmail returns the name of the client task holding the
	// address, or meeting.ErrNotFound.
	FindTaskByAttendeeEmail(ctx context.Context, email string, category meeting.ClientCategory) (string, error)

	// FindContainerByTaskName returns the ID of the client container named
	// taskName under the category's parent, or meeting.ErrNotFound.
	FindContainerByTaskName(ctx context.Context, taskName string, category meeting.ClientCategory) (string, error)

	// CreateTaskInContainer files a task with the given body and returns its ID.
	CreateTaskInContainer(ctx context.Context, containerID, name, body string) (string, error)

	// ListUsers returns the calendar owners to process.
	ListUsers(ctx context.Context) ([]string, error)
}

// RecordStore persists tracking records keyed by event ID.
type RecordStore interface {
	Get(ctx context.Context, eventID string) (meeting.TrackingRecord, bool, error)
	Insert(ctx context.Context, rec meeting.TrackingRecord) error
	Update(ctx context.Context, rec meeting.TrackingRecord) error
}
