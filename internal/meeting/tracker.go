package meeting

import (
	"strconv"
	"strings"
)

// Values written to the tracker's yes/no progress fields.
const (
	Yes = "Yes"
	No  = "No"

	// PendingSummary is the summary placeholder of a freshly created task.
	PendingSummary = "Pending"
)

// TaskStatus is the tracker workflow status of an event task.
type TaskStatus string

const (
	StatusInProgress TaskStatus = "In Progress"
	StatusComplete   TaskStatus = "Complete"
)

// ClientCategory is a client-engagement bucket in the tracker's caseload view.
type ClientCategory string

const (
	CategoryDiagnostic ClientCategory = "DIAGNOSTIC"
	CategoryRetainer   ClientCategory = "RETAINER"
)

// ClientCategories is the order in which buckets are searched for a client.
var ClientCategories = []ClientCategory{CategoryDiagnostic, CategoryRetainer}

// DirectoryField selects which attribute ResolveDirectoryID returns.
type DirectoryField string

const (
	FieldID          DirectoryField = "id"
	FieldDisplayName DirectoryField = "displayName"
)

// Progress is the set of four progress fields kept on an event task.
type Progress struct {
	TranscriptFound  string
	SummaryGenerated string
	Summary          string
	Delivered        string
}

// PendingProgress is written when a task is first created.
func PendingProgress() Progress {
	return Progress{TranscriptFound: No, SummaryGenerated: No, Summary: PendingSummary, Delivered: No}
}

// NotFoundProgress is written when no transcript could be located.
func NotFoundProgress() Progress {
	return Progress{TranscriptFound: No, SummaryGenerated: No, Summary: NotFoundSummary, Delivered: No}
}

// DeliveredProgress is written once the summary has been filed.
func DeliveredProgress(summary string) Progress {
	return Progress{TranscriptFound: Yes, SummaryGenerated: Yes, Summary: summary, Delivered: Yes}
}

// Status is the workflow status matching the progress fields.
func (p Progress) Status() TaskStatus {
	if p.Delivered == Yes {
		return StatusComplete
	}
	return StatusInProgress
}

func (p Progress) String() string {
	return strings.Join([]string{p.TranscriptFound, p.SummaryGenerated, p.Summary, p.Delivered}, "/")
}

// TaskDetails describes the tracker task created for a newly seen event.
type TaskDetails struct {
	Name        string
	Adviser     string
	IsOrganizer bool
	IsCancelled bool
	Start       string
	Duration    string
	Categories  string
	Attendees   string
	Progress    Progress
}

// NewTaskDetails builds the creation payload for an event owned by adviser.
func NewTaskDetails(e Event, adviser string) TaskDetails {
	return TaskDetails{
		Name:        e.Subject,
		Adviser:     adviser,
		IsOrganizer: e.IsOrganizer,
		IsCancelled: e.IsCancelled,
		Start:       FormatStart(e.Start),
		Duration:    FormatDuration(e.Start, e.End),
		Categories:  JoinCategories(e.Categories),
		Attendees:   JoinAttendees(e.Attendees),
		Progress:    PendingProgress(),
	}
}

// FormatFlag renders a boolean the way the tracker's text fields expect.
func FormatFlag(b bool) string {
	return strconv.FormatBool(b)
}
