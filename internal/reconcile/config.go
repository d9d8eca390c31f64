package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/meetingsync/internal/meeting"
)

// Config tunes the engine.
type Config struct {
	// Categories are the recognized client-engagement labels.
	Categories []string `yaml:"categories"`

	// Users are the calendar owners to process. When empty the tracker's
	// users list is used.
	Users []string `yaml:"users"`

	// WindowOffset is added to the meeting end before the transcript is
	// looked for.
	WindowOffset time.Duration `yaml:"window_offset"`

	// LookbackDays and LookaheadDays bound the calendar listing around today.
	LookbackDays  int `yaml:"lookback_days"`
	LookaheadDays int `yaml:"lookahead_days"`

	// TranscriptAttempts is how many runs may report "not found" before the
	// event is finalized as such.
	TranscriptAttempts int `yaml:"transcript_attempts"`

	// FallbackContainers maps an adviser display name to the container that
	// receives summaries no client container was found for.
	FallbackContainers map[string]string `yaml:"fallback_containers"`

	// OthersContainer receives summaries of advisers without a fallback.
	OthersContainer string `yaml:"others_container"`

	// Now overrides the clock. Tests only.
	Now func() time.Time `yaml:"-"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Categories:         append([]string(nil), meeting.DefaultCategories...),
		LookbackDays:       1,
		LookaheadDays:      2,
		TranscriptAttempts: 1,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.WindowOffset < 0 {
		return fmt.Errorf("engine.window_offset must not be negative, got %s", c.WindowOffset)
	}
	if c.LookbackDays < 0 {
		return fmt.Errorf("engine.lookback_days must not be negative, got %d", c.LookbackDays)
	}
	if c.LookaheadDays < 0 {
		return fmt.Errorf("engine.lookahead_days must not be negative, got %d", c.LookaheadDays)
	}
	if c.TranscriptAttempts < 1 {
		return fmt.Errorf("engine.transcript_attempts must be at least 1, got %d", c.TranscriptAttempts)
	}
	if strings.TrimSpace(c.OthersContainer) == "" {
		return fmt.Errorf("engine.others_container is required")
	}
	return nil
}

// fallbackContainer returns the container for an adviser's unmatched
// summaries. Names compare case-insensitively.
func (c *Config) fallbackContainer(adviser string) string {
	for name, id := range c.FallbackContainers {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(adviser)) {
			return id
		}
	}
	return c.OthersContainer
}

// eventWindow returns the calendar listing window around now, in UTC.
func (c *Config) eventWindow(now time.Time) (time.Time, time.Time) {
	today := startOfDay(now)
	return today.AddDate(0, 0, -c.LookbackDays), endOfDay(today.AddDate(0, 0, c.LookaheadDays))
}

// transcriptWindow returns the transcript search window for an event: from
// the day before it started until the end of the listing window.
func (c *Config) transcriptWindow(eventStart, now time.Time) (time.Time, time.Time) {
	return startOfDay(eventStart).AddDate(0, 0, -1), endOfDay(startOfDay(now).AddDate(0, 0, c.LookaheadDays))
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Second)
}
