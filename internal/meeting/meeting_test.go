package meeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterTranscript(t *testing.T) {
	vtt := "WEBVTT\n\n" +
		"0a1b/12-0\n" +
		"00:00:01.000 --> 00:00:04.500\n" +
		"<v Alice Smith>Good morning everyone.</v>\n\n" +
		"0a1b/13-0\r\n" +
		"00:00:05.000 --> 00:00:07.250\r\n" +
		"  <v Bob>Morning.</v>  \r\n" +
		"NOTE not spoken\n" +
		"<vision>not a voice tag</vision>\n"

	got := FilterTranscript(vtt)
	assert.Equal(t, "<v Alice Smith>Good morning everyone.</v>\n<v Bob>Morning.</v>", got)
}

func TestFilterTranscript_Empty(t *testing.T) {
	assert.Equal(t, "", FilterTranscript(""))
	assert.Equal(t, "", FilterTranscript("WEBVTT\n\n00:00:01.000 --> 00:00:02.000\n"))
}

func TestCategoryFilter(t *testing.T) {
	f := NewCategoryFilter()

	tests := []struct {
		name       string
		categories []string
		want       bool
	}{
		{name: "exact retainer", categories: []string{"client - retainer"}, want: true},
		{name: "mixed case", categories: []string{"Client - Diagnostic"}, want: true},
		{name: "label within category", categories: []string{"Blue", "Client - Retainer (2025)"}, want: true},
		{name: "unrelated", categories: []string{"Internal", "Client"}, want: false},
		{name: "none", categories: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Matches(tt.categories))
		})
	}
}

func TestCategoryFilter_CustomLabels(t *testing.T) {
	f := NewCategoryFilter(" Partner ", "")
	assert.Equal(t, []string{"partner"}, f.Labels())
	assert.True(t, f.Matches([]string{"Key PARTNER"}))
	assert.False(t, f.Matches([]string{"client - retainer"}))
}

func TestFormatDuration(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "01:30:00", FormatDuration(start, start.Add(90*time.Minute)))
	assert.Equal(t, "00:00:00", FormatDuration(start, start.Add(59*time.Second)))
	assert.Equal(t, "25:05:00", FormatDuration(start, start.Add(25*time.Hour+5*time.Minute+30*time.Second)))
	assert.Equal(t, "00:00:00", FormatDuration(start, start.Add(-time.Hour)))
}

func TestFormatStart(t *testing.T) {
	loc := time.FixedZone("SGT", 8*3600)
	ts := time.Date(2025, 3, 10, 17, 4, 5, 123456789, loc)
	assert.Equal(t, "2025-03-10 09:04:05.123", FormatStart(ts))
}

func TestJoinLists(t *testing.T) {
	assert.Equal(t, NoCategories, JoinCategories(nil))
	assert.Equal(t, "A, B", JoinCategories([]string{"A", "B"}))
	assert.Equal(t, NoAttendees, JoinAttendees([]string{}))
	assert.Equal(t, "a@x.com, b@y.com", JoinAttendees([]string{"a@x.com", "b@y.com"}))
}

func TestClientAttendees(t *testing.T) {
	got := ClientAttendees(
		[]string{"Adviser@Firm.com", " x@client.com ", "", "boss@firm.com", "y@client.com"},
		"adviser@firm.com", "BOSS@firm.com",
	)
	assert.Equal(t, []string{"x@client.com", "y@client.com"}, got)
	assert.Empty(t, ClientAttendees(nil, "a@b.c"))
}

func TestNoteTitle(t *testing.T) {
	assert.Equal(t, "AI Notes: Quarterly review", NoteTitle("Quarterly review"))
}

func TestWindowElapsed(t *testing.T) {
	end := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	assert.False(t, WindowElapsed(false, end, end.Add(-time.Minute), 0))
	assert.False(t, WindowElapsed(false, end, end, 0), "equal instants do not exceed")
	assert.True(t, WindowElapsed(false, end, end.Add(time.Second), 0))

	// A positive offset delays the window, a negative one brings it forward.
	assert.False(t, WindowElapsed(false, end, end.Add(30*time.Minute), time.Hour))
	assert.True(t, WindowElapsed(false, end, end.Add(-7*time.Hour), -8*time.Hour))

	// Monotonic: once elapsed, stays elapsed even if the meeting moved later.
	assert.True(t, WindowElapsed(true, end.Add(48*time.Hour), end, 0))
}

func TestTrackingRecordState(t *testing.T) {
	ev := Event{
		ID:         "evt-1",
		Subject:    "Kickoff",
		Start:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC),
		Categories: []string{"Client - Retainer"},
		Attendees:  []string{"a@client.com"},
	}

	rec := NewTrackingRecord(ev, "adviser@firm.com", "task-1", false)
	require.Equal(t, "evt-1", rec.EventID)
	assert.Equal(t, "task-1", rec.TaskID)
	assert.Equal(t, "01:15:00", rec.Duration)
	assert.Equal(t, "Client - Retainer", rec.Categories)
	assert.Equal(t, "a@client.com", rec.Attendees)
	assert.Equal(t, StateAwaitingWindow, rec.State())

	rec.TranscriptWindowElapsed = true
	assert.Equal(t, StateAwaitingTranscript, rec.State())

	rec.TranscriptRetrieved = true
	assert.Equal(t, StateFinalized, rec.State())
	assert.False(t, rec.Delivered())

	rec.SummaryDelivered = true
	assert.True(t, rec.Delivered())
}

func TestTrackingRecordRefreshKeepsProgress(t *testing.T) {
	rec := TrackingRecord{EventID: "e", TranscriptWindowElapsed: true, TranscriptAttempts: 2}
	rec.Refresh(Event{ID: "e", Subject: "Renamed"})

	assert.Equal(t, "Renamed", rec.Subject)
	assert.True(t, rec.TranscriptWindowElapsed)
	assert.Equal(t, 2, rec.TranscriptAttempts)
	assert.Equal(t, NoAttendees, rec.Attendees)
}

func TestParseState(t *testing.T) {
	for _, s := range []State{StateCreated, StateAwaitingWindow, StateAwaitingTranscript, StateFinalized} {
		got, err := ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseState("done")
	assert.Error(t, err)
	assert.Equal(t, "state(42)", State(42).String())
}
