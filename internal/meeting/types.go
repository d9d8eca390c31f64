package meeting

import (
	"errors"
	"time"
)

// Sentinel errors shared by adapters and the engine.
var (
	// ErrNotFound is returned by lookups that found nothing. Callers treat it
	// as an absent value, not as a collaborator failure.
	ErrNotFound = errors.New("not found")

	// ErrRecordExists is returned when inserting a record whose event ID is
	// already tracked.
	ErrRecordExists = errors.New("tracking record already exists")

	// ErrRecordFinalized is returned when an update targets a record whose
	// transcript step is already terminal.
	ErrRecordFinalized = errors.New("tracking record is finalized")
)

// NotFoundSummary is stored as the summary of events whose transcript could
// not be located.
const NotFoundSummary = "Transcript Not Found"

// Event is a calendar occurrence as returned by a calendar source. It is
// rebuilt from upstream data on every run.
type Event struct {
	ID      string
	Subject string

	// JoinURL identifies how to join this meeting instance. For Teams it
	// carries the encoded thread ID, for Google Meet the meeting code.
	JoinURL string

	Start time.Time
	End   time.Time

	Categories []string

	OrganizerName  string
	OrganizerEmail string
	Attendees      []string

	IsCancelled bool
	IsOrganizer bool

	Type                  string
	IsOnlineMeeting       bool
	OnlineMeetingProvider string
	ResponseStatus        string
	Location              string
}

// TranscriptRef is one candidate returned by a transcript listing.
type TranscriptRef struct {
	ID string

	// MeetingID is the provider's opaque meeting identifier, compared
	// against Event.JoinURL by a Matcher.
	MeetingID string

	// ContentURL is passed back to the transcript source to fetch the body.
	ContentURL string

	CreatedAt time.Time
}

// TrackingRecord is the durable per-event state row.
type TrackingRecord struct {
	EventID       string
	TaskID        string
	CalendarOwner string

	Subject               string
	JoinURL               string
	Start                 time.Time
	End                   time.Time
	Duration              string
	Categories            string
	OrganizerName         string
	OrganizerEmail        string
	Attendees             string
	IsCancelled           bool
	IsOrganizer           bool
	EventType             string
	IsOnlineMeeting       bool
	OnlineMeetingProvider string
	ResponseStatus        string
	Location              string

	TranscriptWindowElapsed bool
	TranscriptRetrieved     bool
	SummaryDelivered        bool
	Summary                 string
	TranscriptAttempts      int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrackingRecord builds the initial record for an event that has just been
// registered with the tracker.
func NewTrackingRecord(e Event, owner, taskID string, windowElapsed bool) TrackingRecord {
	r := TrackingRecord{
		EventID:                 e.ID,
		TaskID:                  taskID,
		CalendarOwner:           owner,
		TranscriptWindowElapsed: windowElapsed,
	}
	r.Refresh(e)
	return r
}

// Refresh overwrites the descriptive snapshot with the event's current values.
// Progress flags are left untouched.
func (r *TrackingRecord) Refresh(e Event) {
	r.Subject = e.Subject
	r.JoinURL = e.JoinURL
	r.Start = e.Start
	r.End = e.End
	r.Duration = FormatDuration(e.Start, e.End)
	r.Categories = JoinCategories(e.Categories)
	r.OrganizerName = e.OrganizerName
	r.OrganizerEmail = e.OrganizerEmail
	r.Attendees = JoinAttendees(e.Attendees)
	r.IsCancelled = e.IsCancelled
	r.IsOrganizer = e.IsOrganizer
	r.EventType = e.Type
	r.IsOnlineMeeting = e.IsOnlineMeeting
	r.OnlineMeetingProvider = e.OnlineMeetingProvider
	r.ResponseStatus = e.ResponseStatus
	r.Location = e.Location
}

// State reports the lifecycle state of a stored record.
func (r TrackingRecord) State() State {
	switch {
	case r.TranscriptRetrieved:
		return StateFinalized
	case r.TranscriptWindowElapsed:
		return StateAwaitingTranscript
	default:
		return StateAwaitingWindow
	}
}

// Delivered reports whether a summary was filed for this record.
func (r TrackingRecord) Delivered() bool {
	return r.TranscriptRetrieved && r.SummaryDelivered
}
