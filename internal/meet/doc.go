// Package meet lists and fetches Google Meet transcripts through the Meet
// REST API v2.
//
// Transcripts are found through the conference records of the calendar
// owner, each reported with the meeting code of its space so that a
// meeting.MeetMatcher can compare it with a calendar join link. Transcript
// entries are rendered as voice-tagged lines:
//
//	<v Ada Adviser>Shall we start?</v>
//
// Authentication uses the delegated service account from package google with
// the meetings.space.readonly scope.
package meet
