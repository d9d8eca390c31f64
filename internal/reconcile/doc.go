// Package reconcile implements the scheduled reconciliation of calendar
// meetings against their transcripts.
//
// Every run lists each configured user's calendar, keeps events tagged with a
// client-engagement category, and moves each one at most one step through its
// lifecycle:
//
//	created -> awaiting_window -> awaiting_transcript -> finalized
//
// A newly seen event gets a tracker task and a tracking record. Once the
// meeting has ended the transcript is located with a meeting.Matcher,
// summarized, and filed into the client's container in the tracker. Events
// whose transcript cannot be found are finalized with a "not found" summary.
// Finalized events are never touched again, so runs can be repeated freely.
//
// Collaborator failures abandon the current event only; the next run picks it
// up again from its stored state.
package reconcile
