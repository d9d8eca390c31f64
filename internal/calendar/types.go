package calendar

import (
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/meetingsync/internal/meeting"
)

// Provider name recorded for Meet conferences.
const providerGoogleMeet = "googleMeet"

// toEvent converts a Google Calendar event. All-day entries and entries
// without times are rejected.
func toEvent(item *calendar.Event, categoriesProperty string) (meeting.Event, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return meeting.Event{}, false
	}
	start, ok := parseDateTime(item.Start)
	if !ok {
		return meeting.Event{}, false
	}
	end, ok := parseDateTime(item.End)
	if !ok {
		return meeting.Event{}, false
	}

	ev := meeting.Event{
		ID:          item.Id,
		Subject:     item.Summary,
		Start:       start,
		End:         end,
		Categories:  categories(item, categoriesProperty),
		IsCancelled: item.Status == "cancelled",
		Type:        item.EventType,
		Location:    item.Location,
	}
	if ev.Subject == "" {
		ev.Subject = "No Subject"
	}

	if item.Organizer != nil {
		ev.OrganizerName = item.Organizer.DisplayName
		ev.OrganizerEmail = item.Organizer.Email
		ev.IsOrganizer = item.Organizer.Self
	}

	for _, att := range item.Attendees {
		if att == nil || att.Resource || att.Email == "" {
			continue
		}
		ev.Attendees = append(ev.Attendees, att.Email)
		if att.Self {
			ev.ResponseStatus = att.ResponseStatus
		}
	}

	ev.JoinURL = joinURL(item)
	ev.IsOnlineMeeting = ev.JoinURL != ""
	if ev.IsOnlineMeeting {
		ev.OnlineMeetingProvider = providerGoogleMeet
	}
	return ev, true
}

func parseDateTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt.DateTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, dt.DateTime)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// categories reads the comma-separated categories from the event's extended
// properties, private values taking precedence over shared ones.
func categories(item *calendar.Event, property string) []string {
	if item.ExtendedProperties == nil {
		return nil
	}
	raw := item.ExtendedProperties.Private[property]
	if raw == "" {
		raw = item.ExtendedProperties.Shared[property]
	}

	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// joinURL returns the Meet video entry point, falling back to the hangout link.
func joinURL(item *calendar.Event) string {
	if item.ConferenceData != nil {
		for _, ep := range item.ConferenceData.EntryPoints {
			if ep != nil && ep.EntryPointType == "video" {
				return ep.Uri
			}
		}
	}
	return item.HangoutLink
}
