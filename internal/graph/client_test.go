package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetingsync/internal/meeting"
	"github.com/teemow/meetingsync/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Wait: time.Millisecond, MaxElapsed: 5 * time.Second}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTPClient(srv.Client(), srv.URL+"/v1.0/", testPolicy(), nil, nil), srv
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate())

	cfg.ClientID = "app"
	cfg.ClientSecret = "secret"
	require.Error(t, cfg.Validate(), "tenant is required")

	cfg.TenantID = "contoso"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://login.microsoftonline.com/contoso/oauth2/v2.0/token", cfg.tokenURL())

	cfg.TenantID = ""
	cfg.TokenURL = "https://login.example/token"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://login.example/token", cfg.tokenURL())

	cfg.BaseURL = ""
	assert.Equal(t, DefaultBaseURL, cfg.baseURL())
}

func TestClient_ListEvents(t *testing.T) {
	var srvURL string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/users/ada@firm.com/calendarView", r.URL.Path)
		assert.Equal(t, `outlook.timezone="UTC"`, r.Header.Get("Prefer"))

		if r.URL.Query().Get("$skip") == "" {
			assert.Equal(t, "1000", r.URL.Query().Get("$top"))
			assert.Equal(t, "2025-03-09T00:00:00Z", r.URL.Query().Get("startDateTime"))
			writeJSON(w, fmt.Sprintf(`{"value":[{
				"id":"evt-1","subject":"Quarterly review","isCancelled":false,"isOrganizer":true,
				"type":"singleInstance","isOnlineMeeting":true,"onlineMeetingProvider":"teamsForBusiness",
				"onlineMeeting":{"joinUrl":"https://teams.microsoft.com/l/meetup-join/19%%3ameeting_abc%%40thread.v2/0"},
				"responseStatus":{"response":"organizer"},
				"organizer":{"emailAddress":{"name":"Ada Adviser","address":"ada@firm.com"}},
				"start":{"dateTime":"2025-03-09T10:00:00.0000000","timeZone":"UTC"},
				"end":{"dateTime":"2025-03-09T11:30:00.0000000","timeZone":"UTC"},
				"location":{"displayName":"Teams"},
				"categories":["Client - Retainer"],
				"attendees":[{"emailAddress":{"address":"x@client.com"}},{"emailAddress":{"address":" "}}]
			},{"id":"broken","start":{"dateTime":"tomorrow"},"end":{"dateTime":"later"}}],
			"@odata.nextLink":"%s/v1.0/users/ada@firm.com/calendarView?$skip=2"}`, srvURL))
			return
		}
		writeJSON(w, `{"value":[{"id":"evt-2","start":{"dateTime":"2025-03-10T02:00:00"},"end":{"dateTime":"2025-03-10T02:30:00"}}]}`)
	})
	srvURL = srv.URL

	events, err := c.ListEvents(context.Background(), "ada@firm.com",
		time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 2)

	ev := events[0]
	assert.Equal(t, "evt-1", ev.ID)
	assert.Equal(t, time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, "01:30:00", meeting.FormatDuration(ev.Start, ev.End))
	assert.Equal(t, []string{"x@client.com"}, ev.Attendees)
	assert.Equal(t, "Ada Adviser", ev.OrganizerName)
	assert.Equal(t, "organizer", ev.ResponseStatus)
	assert.True(t, ev.IsOrganizer)
	assert.Contains(t, ev.JoinURL, "meeting_abc")

	assert.Equal(t, "evt-2", events[1].ID)
	assert.Equal(t, "No Subject", events[1].Subject)
}

func TestParseDateTime(t *testing.T) {
	got, err := parseDateTime(dateTimeTimeZone{DateTime: "2025-03-09T18:00:00.0000000", TimeZone: "Asia/Singapore"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC), got)

	_, err = parseDateTime(dateTimeTimeZone{})
	assert.Error(t, err)
}

func TestClient_ResolveDirectoryID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/users", r.URL.Path)
		switch r.URL.Query().Get("$filter") {
		case "mail eq 'ada@firm.com'":
			writeJSON(w, `{"value":[{"id":"1001","displayName":"Ada Adviser","mail":"ada@firm.com"}]}`)
		case "mail eq 'o''brien@firm.com'":
			writeJSON(w, `{"value":[{"id":"1002","displayName":"","mail":"o'brien@firm.com"}]}`)
		default:
			writeJSON(w, `{"value":[]}`)
		}
	})
	ctx := context.Background()

	id, err := c.ResolveDirectoryID(ctx, "ada@firm.com", meeting.FieldID)
	require.NoError(t, err)
	assert.Equal(t, "1001", id)

	name, err := c.ResolveDirectoryID(ctx, "ada@firm.com", meeting.FieldDisplayName)
	require.NoError(t, err)
	assert.Equal(t, "Ada Adviser", name)

	_, err = c.ResolveDirectoryID(ctx, "o'brien@firm.com", meeting.FieldDisplayName)
	assert.ErrorIs(t, err, meeting.ErrNotFound)

	_, err = c.ResolveDirectoryID(ctx, "nobody@firm.com", meeting.FieldID)
	assert.ErrorIs(t, err, meeting.ErrNotFound)
}

func TestClient_ListAndFetchTranscripts(t *testing.T) {
	var srvURL string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/content"):
			assert.Equal(t, "text/vtt", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "text/vtt")
			_, _ = w.Write([]byte("WEBVTT\n\n00:00:01.000 --> 00:00:03.000\n<v Ada>Hello</v>\n"))
		case strings.Contains(r.URL.Path, "getAllTranscripts"):
			assert.Equal(t,
				"/v1.0/users/1001/onlineMeetings/getAllTranscripts(meetingOrganizerUserId='1001',startDateTime=2025-03-08T00:00:00Z,endDateTime=2025-03-12T23:59:59Z)",
				r.URL.Path)
			writeJSON(w, fmt.Sprintf(`{"value":[{"id":"t1","meetingId":"MSoxMjM=","transcriptContentUrl":"%s/v1.0/t1/content","createdDateTime":"2025-03-09T11:31:00Z"}]}`, srvURL))
		default:
			http.NotFound(w, r)
		}
	})
	srvURL = srv.URL
	ctx := context.Background()

	refs, err := c.ListTranscripts(ctx, "1001",
		time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "MSoxMjM=", refs[0].MeetingID)
	assert.Equal(t, time.Date(2025, 3, 9, 11, 31, 0, 0, time.UTC), refs[0].CreatedAt)

	text, err := c.FetchTranscriptText(ctx, refs[0].ContentURL)
	require.NoError(t, err)
	assert.Equal(t, "<v Ada>Hello</v>", meeting.FilterTranscript(text))

	_, err = c.FetchTranscriptText(ctx, "")
	assert.Error(t, err)
}

func TestClient_RetriesThrottledCalls(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, `{"value":[{"id":"1001","displayName":"Ada"}]}`)
	})

	id, err := c.ResolveDirectoryID(context.Background(), "ada@firm.com", meeting.FieldID)
	require.NoError(t, err)
	assert.Equal(t, "1001", id)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PermanentErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"Authorization_RequestDenied"}}`))
	})

	_, err := c.ListEvents(context.Background(), "ada@firm.com", time.Now(), time.Now())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Authorization_RequestDenied")
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.Equal(t, int32(1), calls.Load(), "4xx responses are not retried")
}

func TestClient_ServerErrorsExhaustPolicy(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ListTranscripts(context.Background(), "1001", time.Now(), time.Now())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.Equal(t, int32(3), calls.Load())
}
