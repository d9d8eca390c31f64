package meeting

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	threadID = "19:meeting_NzY4ZTk5YjQtYjA4Mi00_abc-def@thread.v2"
	joinURL  = "https://teams.microsoft.com/l/meetup-join/19%3ameeting_NzY4ZTk5YjQtYjA4Mi00_abc-def%40thread.v2/0?context=%7b%22Tid%22%3a%22t%22%7d"
)

func listingID(body string) string {
	return base64.RawStdEncoding.EncodeToString([]byte(body))
}

func TestTeamsIDFromJoinURL(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "encoded join url", input: joinURL, want: threadID, wantOK: true},
		{name: "already decoded", input: "https://x/l/meetup-join/" + threadID + "/0", want: threadID, wantOK: true},
		{name: "malformed escape kept", input: "%zz/19%3ameeting_a1@thread.v2", want: "19:meeting_a1@thread.v2", wantOK: true},
		{name: "no thread", input: "https://meet.google.com/abc-defg-hij", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TeamsIDFromJoinURL(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTeamsIDFromListingID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "unpadded", input: listingID("1*user-guid*0**" + threadID), want: threadID, wantOK: true},
		{name: "padded", input: base64.StdEncoding.EncodeToString([]byte("0**" + threadID)), want: threadID, wantOK: true},
		{name: "invalid utf8 dropped", input: listingID("\xff\xfe" + threadID), want: threadID, wantOK: true},
		{name: "no pattern", input: listingID("something else"), wantOK: false},
		{name: "garbage", input: "!!!", wantOK: false},
		{name: "bad length", input: "abcde", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TeamsIDFromListingID(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSameTeamsMeeting(t *testing.T) {
	assert.True(t, SameTeamsMeeting(joinURL, listingID("1*u*0**"+threadID)))
	assert.False(t, SameTeamsMeeting(joinURL, listingID("1*u*0**19:meeting_other@thread.v2")))
	assert.False(t, SameTeamsMeeting(joinURL, "%%%not base64%%%"))
	assert.False(t, SameTeamsMeeting("", listingID(threadID)))

	// Both sides failing to extract is not a match.
	assert.False(t, SameTeamsMeeting("", ""))
}

func TestSameTeamsMeeting_NeverPanics(t *testing.T) {
	inputs := []string{"", "=", "====", "%", "%4", "\x00\x01", "19:meeting_@", "YQ", "💥"}
	for _, a := range inputs {
		for _, b := range inputs {
			assert.NotPanics(t, func() { SameTeamsMeeting(a, b) })
		}
	}
}

func TestSameMeetCode(t *testing.T) {
	assert.True(t, SameMeetCode("https://meet.google.com/abc-defg-hij", "abc-defg-hij"))
	assert.True(t, SameMeetCode("https://meet.google.com/ABC-DEFG-HIJ?authuser=1", "abc-defg-hij"))
	assert.False(t, SameMeetCode("https://meet.google.com/abc-defg-hij", "xyz-defg-hij"))
	assert.False(t, SameMeetCode("https://meet.google.com/lookup/x", "abc-defg-hij"))
	assert.False(t, SameMeetCode("https://meet.google.com/abc-defg-hij", ""))
}

func TestMatcherFunc(t *testing.T) {
	var called bool
	m := MatcherFunc(func(a, b string) bool {
		called = true
		return a == b
	})
	assert.True(t, m.Match("x", "x"))
	assert.True(t, called)
	assert.True(t, TeamsMatcher.Match(joinURL, listingID(threadID)))
	assert.True(t, MeetMatcher.Match("https://meet.google.com/abc-defg-hij", "abc-defg-hij"))
}
