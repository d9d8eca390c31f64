package clickup

import (
	"fmt"
	"strings"

	"github.com/teemow/meetingsync/internal/meeting"
	"github.com/teemow/meetingsync/internal/retry"
)

const (
	DefaultBaseURL      = "https://api.clickup.com/api/v2"
	DefaultCreateStatus = "IN PROGRESS"
)

// Config holds the workspace layout the adapter writes into.
type Config struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`

	// EventListID receives one task per tracked calendar event.
	EventListID string `yaml:"event_list_id"`
	// UsersListID holds one task per calendar owner, named by address.
	UsersListID string `yaml:"users_list_id"`
	// CaseloadViewID is the view whose tasks carry client email fields.
	CaseloadViewID string `yaml:"caseload_view_id"`
	// ClientFolders maps a client category to the folder holding one list
	// per client.
	ClientFolders map[meeting.ClientCategory]string `yaml:"client_folders"`

	CreateStatus string   `yaml:"create_status"`
	Fields       FieldIDs `yaml:"fields"`

	Retry retry.Policy `yaml:"retry"`
}

// FieldIDs are the custom field IDs of the event task.
type FieldIDs struct {
	Adviser    string `yaml:"adviser"`
	Organizer  string `yaml:"organizer"`
	Cancelled  string `yaml:"cancelled"`
	StartTime  string `yaml:"start_time"`
	Duration   string `yaml:"duration"`
	Categories string `yaml:"categories"`
	Attendees  string `yaml:"attendees"`

	TranscriptFound  string `yaml:"transcript_found"`
	SummaryGenerated string `yaml:"summary_generated"`
	Summary          string `yaml:"summary"`
	Delivered        string `yaml:"delivered"`
}

// DefaultConfig returns a Config with the public API endpoint.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		CreateStatus:  DefaultCreateStatus,
		ClientFolders: map[meeting.ClientCategory]string{},
		Retry:         retry.DefaultPolicy(),
	}
}

// Validate reports the first missing setting.
func (c Config) Validate() error {
	required := []struct{ name, value string }{
		{"token", c.Token},
		{"event_list_id", c.EventListID},
		{"caseload_view_id", c.CaseloadViewID},
		{"fields.adviser", c.Fields.Adviser},
		{"fields.organizer", c.Fields.Organizer},
		{"fields.cancelled", c.Fields.Cancelled},
		{"fields.start_time", c.Fields.StartTime},
		{"fields.duration", c.Fields.Duration},
		{"fields.categories", c.Fields.Categories},
		{"fields.attendees", c.Fields.Attendees},
		{"fields.transcript_found", c.Fields.TranscriptFound},
		{"fields.summary_generated", c.Fields.SummaryGenerated},
		{"fields.summary", c.Fields.Summary},
		{"fields.delivered", c.Fields.Delivered},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}
	for _, cat := range meeting.ClientCategories {
		if c.ClientFolders[cat] == "" {
			return fmt.Errorf("client_folders.%s is required", cat)
		}
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c Config) createStatus() string {
	if c.CreateStatus == "" {
		return DefaultCreateStatus
	}
	return c.CreateStatus
}
