// Package clickup is the task tracker adapter for ClickUp's v2 REST API.
//
// Each tracked calendar event gets a task in the events list carrying the
// meeting details and four progress custom fields. Summaries are filed as
// "AI Notes" tasks in the client's list, located through the caseload view
// (by attendee email) and the client delivery folders (by client name).
//
// Requests authenticate with a personal API token and are retried under a
// retry.Policy. ClickUp signals throttling with 429 and X-RateLimit-Reset.
package clickup
