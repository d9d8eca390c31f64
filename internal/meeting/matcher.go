package meeting

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
)

// Matcher decides whether a transcript listing entry belongs to the meeting
// identified by a join reference.
type Matcher interface {
	Match(joinRef, meetingID string) bool
}

// MatcherFunc adapts a plain function to the Matcher interface.
type MatcherFunc func(joinRef, meetingID string) bool

// Match calls f(joinRef, meetingID).
func (f MatcherFunc) Match(joinRef, meetingID string) bool {
	return f(joinRef, meetingID)
}

var (
	teamsThreadPattern = regexp.MustCompile(`\d+:meeting_[\w-]+@[\w.-]+`)
	meetCodePattern    = regexp.MustCompile(`[a-z]{3}-[a-z]{4}-[a-z]{3}`)
)

// TeamsMatcher matches Teams join URLs against base64 encoded transcript
// meeting IDs.
var TeamsMatcher Matcher = MatcherFunc(SameTeamsMeeting)

// MeetMatcher matches Google Meet join links against conference meeting codes.
var MeetMatcher Matcher = MatcherFunc(SameMeetCode)

// SameTeamsMeeting reports whether the join URL and the listing's meeting ID
// carry the same thread identifier. Both must yield one.
func SameTeamsMeeting(joinURL, meetingID string) bool {
	fromURL, ok := TeamsIDFromJoinURL(joinURL)
	if !ok {
		return false
	}
	fromListing, ok := TeamsIDFromListingID(meetingID)
	if !ok {
		return false
	}
	return fromURL == fromListing
}

// TeamsIDFromJoinURL extracts the canonical thread identifier
// ("19:meeting_xxx@thread.v2") from a Teams join URL.
func TeamsIDFromJoinURL(joinURL string) (string, bool) {
	id := teamsThreadPattern.FindString(unescapeLenient(joinURL))
	return id, id != ""
}

// TeamsIDFromListingID extracts the canonical thread identifier from the
// base64 encoded meeting ID of a transcript listing. Undecodable input
// yields false.
func TeamsIDFromListingID(meetingID string) (string, bool) {
	decoded, ok := decodeBase64Lenient(meetingID)
	if !ok {
		return "", false
	}
	id := teamsThreadPattern.FindString(decoded)
	return id, id != ""
}

// SameMeetCode reports whether a Google Meet join link and a conference
// meeting code refer to the same space.
func SameMeetCode(joinURL, meetingCode string) bool {
	fromURL := meetCodePattern.FindString(strings.ToLower(unescapeLenient(joinURL)))
	if fromURL == "" {
		return false
	}
	fromListing := meetCodePattern.FindString(strings.ToLower(meetingCode))
	return fromListing != "" && fromURL == fromListing
}

func decodeBase64Lenient(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if isBase64Char(r) {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return "", false
	}
	if rem := len(cleaned) % 4; rem != 0 {
		cleaned += strings.Repeat("=", 4-rem)
	}
	raw, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return "", false
	}
	return strings.ToValidUTF8(string(raw), ""), true
}

func isBase64Char(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '+' || r == '/'
}

// unescapeLenient percent-decodes s, leaving malformed escapes as they are.
func unescapeLenient(s string) string {
	if out, err := url.PathUnescape(s); err == nil {
		return out
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "")
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
