// Package cmd implements the command-line interface for meetingsync.
//
// This package provides the following commands:
//   - run: Reconcile calendar events once and exit
//   - serve: Run reconciliation on a cron schedule with metrics and health endpoints
//   - migrate: Create or update the tracking table
//   - records: List tracked meetings and their state
//   - match: Check whether a join URL and a transcript meeting ID refer to the same meeting
//   - version: Display version information
package cmd
