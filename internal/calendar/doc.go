// Package calendar lists Google Workspace calendar events as meeting.Events.
//
// Events are read per owner through a delegated service account. Google
// Calendar has no categories, so they are taken from an extended event
// property (by default "categories") holding a comma-separated list such as
// "Client - Retainer, Billable".
package calendar
