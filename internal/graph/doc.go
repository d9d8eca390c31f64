// Package graph talks to Microsoft Graph on behalf of a tenant-wide app
// registration.
//
// The Client covers three concerns of the reconciliation job:
//
//   - calendar views of each adviser (CalendarView)
//   - directory lookups by mail address (users?$filter=mail eq ...)
//   - Teams transcripts of meetings a user organized (getAllTranscripts),
//     fetched as WebVTT
//
// Tokens come from the OAuth2 client credentials grant. Calls are retried
// under a retry.Policy; throttled responses honour Retry-After.
package graph
