package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/meetingsync/internal/meeting"
	"github.com/teemow/meetingsync/internal/provider"
)

func newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <join-url> <meeting-id>",
		Short: "Check whether a join URL and a transcript meeting ID refer to the same meeting",
		Long: `Print the identifiers extracted from a calendar join URL and a transcript
listing meeting ID, and whether the configured platform would match them.

For Microsoft Teams the meeting ID is the base64 listing ID; for Google Meet
it is the meeting code.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := provider.Normalize(flags.provider)
			matcher, err := provider.MatcherFor(name)
			if err != nil {
				return err
			}
			printMatch(cmd.OutOrStdout(), name, matcher, args[0], args[1])
			return nil
		},
	}
}

func printMatch(w io.Writer, name string, matcher meeting.Matcher, joinURL, meetingID string) {
	if name == provider.Microsoft {
		fromURL, ok := meeting.TeamsIDFromJoinURL(joinURL)
		fmt.Fprintf(w, "join url thread:   %s\n", orNone(fromURL, ok))
		fromListing, ok := meeting.TeamsIDFromListingID(meetingID)
		fmt.Fprintf(w, "listing thread:    %s\n", orNone(fromListing, ok))
	}
	fmt.Fprintf(w, "match (%s): %t\n", name, matcher.Match(joinURL, meetingID))
}

func orNone(s string, ok bool) string {
	if !ok {
		return "<none>"
	}
	return s
}
