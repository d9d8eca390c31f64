package meeting

import (
	"fmt"
	"strings"
	"time"
)

// StartLayout is the layout used for the start time written to the tracker.
const StartLayout = "2006-01-02 15:04:05.000"

// Placeholders written to the tracker.
const (
	NoCategories = "No Categories"
	NoAttendees  = "No Attendees"
)

// FormatStart renders an event start for the tracker, in UTC.
func FormatStart(t time.Time) string {
	return t.UTC().Format(StartLayout)
}

// FormatDuration renders the meeting length as "HH:MM:00". Seconds are
// truncated and negative spans render as zero.
func FormatDuration(start, end time.Time) string {
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	totalMinutes := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d:00", totalMinutes/60, totalMinutes%60)
}

// JoinCategories renders the category list as stored on the record.
func JoinCategories(categories []string) string {
	if len(categories) == 0 {
		return NoCategories
	}
	return strings.Join(categories, ", ")
}

// JoinAttendees renders the attendee list as stored on the record.
func JoinAttendees(attendees []string) string {
	if len(attendees) == 0 {
		return NoAttendees
	}
	return strings.Join(attendees, ", ")
}

// ClientAttendees returns the attendee addresses with the given addresses
// (organizer, calendar owner) removed. Comparison ignores case and
// surrounding space; order and duplicates of the rest are preserved.
func ClientAttendees(attendees []string, exclude ...string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			skip[e] = struct{}{}
		}
	}

	var out []string
	for _, a := range attendees {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := skip[strings.ToLower(a)]; ok {
			continue
		}
		out = append(out, a)
	}
	return out
}

// NoteTitle is the name of the task that carries a meeting summary.
func NoteTitle(subject string) string {
	return "AI Notes: " + subject
}
