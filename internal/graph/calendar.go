package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // zone names in dateTimeTimeZone values

	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/meeting"
)

// Graph renders dateTimeTimeZone values without an offset and with up to
// seven fractional digits.
const graphDateTime = "2006-01-02T15:04:05.9999999"

const calendarPageSize = "1000"

type emailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type dateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEvent struct {
	ID                    string `json:"id"`
	Subject               string `json:"subject"`
	IsCancelled           bool   `json:"isCancelled"`
	IsOrganizer           bool   `json:"isOrganizer"`
	Type                  string `json:"type"`
	IsOnlineMeeting       bool   `json:"isOnlineMeeting"`
	OnlineMeetingProvider string `json:"onlineMeetingProvider"`
	OnlineMeeting         *struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting"`
	ResponseStatus struct {
		Response string `json:"response"`
	} `json:"responseStatus"`
	Organizer struct {
		EmailAddress emailAddress `json:"emailAddress"`
	} `json:"organizer"`
	Start    dateTimeTimeZone `json:"start"`
	End      dateTimeTimeZone `json:"end"`
	Location struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	Categories []string `json:"categories"`
	Attendees  []struct {
		EmailAddress emailAddress `json:"emailAddress"`
	} `json:"attendees"`
}

// ListEvents returns the user's calendar view for [start, end] with times in
// UTC.
func (c *Client) ListEvents(ctx context.Context, user string, start, end time.Time) (events []meeting.Event, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceGraph, instrumentation.OperationListEvents)
	defer func() { done(err) }()

	q := url.Values{}
	q.Set("$top", calendarPageSize)
	q.Set("startDateTime", start.UTC().Format(time.RFC3339))
	q.Set("endDateTime", end.UTC().Format(time.RFC3339))

	items, err := list[graphEvent](ctx, c, request{
		op:     instrumentation.OperationListEvents,
		url:    fmt.Sprintf("%s/users/%s/calendarView?%s", c.baseURL, url.PathEscape(user), q.Encode()),
		header: map[string]string{"Prefer": `outlook.timezone="UTC"`},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar view of %s: %w", user, err)
	}

	events = make([]meeting.Event, 0, len(items))
	for _, item := range items {
		ev, err := item.toEvent()
		if err != nil {
			c.logger.Warn("skipping calendar event with unreadable times",
				logging.EventID(item.ID),
				logging.Err(err))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (g graphEvent) toEvent() (meeting.Event, error) {
	start, err := parseDateTime(g.Start)
	if err != nil {
		return meeting.Event{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseDateTime(g.End)
	if err != nil {
		return meeting.Event{}, fmt.Errorf("end: %w", err)
	}

	subject := g.Subject
	if subject == "" {
		subject = "No Subject"
	}

	ev := meeting.Event{
		ID:                    g.ID,
		Subject:               subject,
		Start:                 start,
		End:                   end,
		Categories:            g.Categories,
		OrganizerName:         g.Organizer.EmailAddress.Name,
		OrganizerEmail:        g.Organizer.EmailAddress.Address,
		IsCancelled:           g.IsCancelled,
		IsOrganizer:           g.IsOrganizer,
		Type:                  g.Type,
		IsOnlineMeeting:       g.IsOnlineMeeting,
		OnlineMeetingProvider: g.OnlineMeetingProvider,
		ResponseStatus:        g.ResponseStatus.Response,
		Location:              g.Location.DisplayName,
	}
	if g.OnlineMeeting != nil {
		ev.JoinURL = g.OnlineMeeting.JoinURL
	}
	for _, a := range g.Attendees {
		if addr := strings.TrimSpace(a.EmailAddress.Address); addr != "" {
			ev.Attendees = append(ev.Attendees, addr)
		}
	}
	return ev, nil
}

// parseDateTime reads a dateTimeTimeZone. Values carry no offset and are
// interpreted in their declared zone, UTC when absent or unknown.
func parseDateTime(v dateTimeTimeZone) (time.Time, error) {
	if v.DateTime == "" {
		return time.Time{}, fmt.Errorf("missing dateTime")
	}
	loc := time.UTC
	if v.TimeZone != "" && !strings.EqualFold(v.TimeZone, "UTC") {
		if l, err := time.LoadLocation(v.TimeZone); err == nil {
			loc = l
		}
	}
	t, err := time.ParseInLocation(graphDateTime, v.DateTime, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
