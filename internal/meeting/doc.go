// Package meeting holds the domain model shared by every part of meetingsync.
//
// It defines the calendar Event as seen by the reconciliation engine, the
// persistent TrackingRecord that carries an event through its lifecycle, and
// the pure helpers that operate on them:
//
//   - Identifier matching between a meeting join link and a transcript listing
//     (Microsoft Teams and Google Meet flavours)
//   - Transcript line filtering (spoken lines only, timestamps removed)
//   - Category filtering against the recognized client-engagement labels
//   - Tracker field formatting (start stamp, duration, joined lists)
//
// Nothing in this package performs I/O.
package meeting
