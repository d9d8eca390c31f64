package google

import (
	admin "google.golang.org/api/admin/directory/v1"
	calendar "google.golang.org/api/calendar/v3"
	meet "google.golang.org/api/meet/v2"
)

// Scopes requested when impersonating calendar owners.
var (
	// CalendarScopes cover reading events of the impersonated user.
	CalendarScopes = []string{calendar.CalendarEventsReadonlyScope}

	// MeetScopes cover conference records, spaces and transcripts.
	MeetScopes = []string{meet.MeetingsSpaceReadonlyScope}

	// DirectoryScopes cover user lookups through the admin subject.
	DirectoryScopes = []string{admin.AdminDirectoryUserReadonlyScope}
)

// AllScopes lists every scope the service account must be granted in the
// Workspace admin console.
func AllScopes() []string {
	all := make([]string, 0, len(CalendarScopes)+len(MeetScopes)+len(DirectoryScopes))
	all = append(all, CalendarScopes...)
	all = append(all, MeetScopes...)
	all = append(all, DirectoryScopes...)
	return all
}
