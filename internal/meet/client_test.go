package meet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	meet "google.golang.org/api/meet/v2"
	"google.golang.org/api/option"

	"github.com/teemow/meetingsync/internal/meeting"
)

type staticResolver map[string]string

func (r staticResolver) PrimaryEmail(_ context.Context, id string) (string, error) {
	if email, ok := r[id]; ok {
		return email, nil
	}
	return "", meeting.ErrNotFound
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	responses := map[string]string{
		"/v2/conferenceRecords": `{"conferenceRecords":[{"name":"conferenceRecords/c1","space":"spaces/s1","startTime":"2025-03-09T10:00:00Z"}]}`,
		"/v2/spaces/s1":         `{"name":"spaces/s1","meetingCode":"abc-defg-hij","meetingUri":"https://meet.google.com/abc-defg-hij"}`,
		"/v2/conferenceRecords/c1/transcripts": `{"transcripts":[
			{"name":"conferenceRecords/c1/transcripts/t1","state":"FILE_GENERATED","startTime":"2025-03-09T10:01:00Z"},
			{"name":"conferenceRecords/c1/transcripts/t2","state":"STARTED"}]}`,
		"/v2/conferenceRecords/c1/transcripts/t1/entries": `{"transcriptEntries":[
			{"participant":"conferenceRecords/c1/participants/p1","text":"Shall we start?"},
			{"participant":"conferenceRecords/c1/participants/p2","text":" Yes please. "},
			{"participant":"conferenceRecords/c1/participants/p1","text":"  "}]}`,
		"/v2/conferenceRecords/c1/participants/p1": `{"signedinUser":{"displayName":"Ada Adviser"}}`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) (*Client, *[]string) {
	t.Helper()
	var users []string
	factory := func(ctx context.Context, user string) (*meet.Service, error) {
		users = append(users, user)
		return meet.NewService(ctx, option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	}
	return NewClientWithFactory(factory, staticResolver{"1001": "ada@firm.com"}, nil, nil), &users
}

func TestClient_ListAndFetch(t *testing.T) {
	srv := newTestServer(t)
	c, users := newTestClient(t, srv)
	ctx := context.Background()

	refs, err := c.ListTranscripts(ctx, "1001",
		time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListTranscripts() error = %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 readable transcript, got %d", len(refs))
	}
	ref := refs[0]
	if ref.MeetingID != "abc-defg-hij" || ref.ContentURL != "conferenceRecords/c1/transcripts/t1" {
		t.Errorf("unexpected ref %+v", ref)
	}
	if !ref.CreatedAt.Equal(time.Date(2025, 3, 9, 10, 1, 0, 0, time.UTC)) {
		t.Errorf("unexpected created at %v", ref.CreatedAt)
	}
	if !meeting.MeetMatcher.Match("https://meet.google.com/abc-defg-hij?authuser=0", ref.MeetingID) {
		t.Error("expected the listing to match its join link")
	}

	text, err := c.FetchTranscriptText(ctx, ref.ContentURL)
	if err != nil {
		t.Fatalf("FetchTranscriptText() error = %v", err)
	}
	want := "<v Ada Adviser>Shall we start?</v>\n<v Unknown>Yes please.</v>"
	if got := meeting.FilterTranscript(text); got != want {
		t.Errorf("filtered transcript = %q, want %q", got, want)
	}

	if len(*users) != 1 || (*users)[0] != "ada@firm.com" {
		t.Errorf("expected a single impersonated user, got %v", *users)
	}
}

func TestClient_UnknownOwner(t *testing.T) {
	srv := newTestServer(t)
	c, _ := newTestClient(t, srv)

	_, err := c.ListTranscripts(context.Background(), "9999", time.Now(), time.Now())
	if !errors.Is(err, meeting.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FetchUnlistedTranscript(t *testing.T) {
	srv := newTestServer(t)
	c, _ := newTestClient(t, srv)

	if _, err := c.FetchTranscriptText(context.Background(), "conferenceRecords/c1/transcripts/t1"); err == nil {
		t.Error("expected error for a transcript that was never listed")
	}
}

func TestParticipantName(t *testing.T) {
	tests := []struct {
		name string
		p    *meet.Participant
		want string
	}{
		{name: "nil", p: nil, want: "Unknown"},
		{name: "signed in", p: &meet.Participant{SignedinUser: &meet.SignedinUser{DisplayName: "Ada"}}, want: "Ada"},
		{name: "anonymous", p: &meet.Participant{AnonymousUser: &meet.AnonymousUser{DisplayName: "Guest"}}, want: "Guest"},
		{name: "phone", p: &meet.Participant{PhoneUser: &meet.PhoneUser{DisplayName: "+1 555"}}, want: "+1 555"},
		{name: "empty", p: &meet.Participant{}, want: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := participantName(tt.p); got != tt.want {
				t.Errorf("participantName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConferenceFilter(t *testing.T) {
	got := conferenceFilter(
		time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 23, 59, 59, 0, time.FixedZone("SGT", 8*3600)))
	want := `start_time>="2025-03-08T00:00:00Z" AND start_time<="2025-03-12T15:59:59Z"`
	if got != want {
		t.Errorf("conferenceFilter() = %q, want %q", got, want)
	}
}
