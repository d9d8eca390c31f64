package meeting

import (
	"regexp"
	"strings"
)

var cueTimingPattern = regexp.MustCompile(`\d{2}:\d{2}:\d{2}\.\d{3} --> \d{2}:\d{2}:\d{2}\.\d{3}`)

// FilterTranscript reduces a WebVTT body to its spoken lines. Cue timings
// are removed and only lines carrying a voice tag ("<v Speaker>") are kept.
func FilterTranscript(vtt string) string {
	withoutTimings := cueTimingPattern.ReplaceAllString(vtt, "")

	var spoken []string
	for _, line := range strings.Split(withoutTimings, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "<v ") {
			spoken = append(spoken, line)
		}
	}
	return strings.Join(spoken, "\n")
}
