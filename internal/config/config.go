// Package config assembles the job configuration from a YAML file, an
// optional .env file and environment variables.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables, command line flags (applied by package cmd). Secrets are
// normally supplied through the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/teemow/meetingsync/internal/clickup"
	"github.com/teemow/meetingsync/internal/google"
	"github.com/teemow/meetingsync/internal/graph"
	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/openai"
	"github.com/teemow/meetingsync/internal/provider"
	"github.com/teemow/meetingsync/internal/reconcile"
	"github.com/teemow/meetingsync/internal/server"
	"github.com/teemow/meetingsync/internal/store"
)

// DefaultSchedule runs the job every 30 minutes.
const DefaultSchedule = "*/30 * * * *"

// Config is the complete job configuration.
type Config struct {
	Provider string         `yaml:"provider"`
	Graph    graph.Config   `yaml:"graph"`
	Google   google.Config  `yaml:"google"`
	ClickUp  clickup.Config `yaml:"clickup"`
	OpenAI   openai.Config  `yaml:"openai"`
	Database store.Options  `yaml:"database"`

	Engine   reconcile.Config `yaml:"engine"`
	Schedule ScheduleConfig   `yaml:"schedule"`

	Log     logging.Config         `yaml:"log"`
	Metrics instrumentation.Config `yaml:"metrics"`
	Server  server.Config          `yaml:"server"`
}

// ScheduleConfig controls the serve command's scheduler.
type ScheduleConfig struct {
	// Cron is a standard five-field cron expression, evaluated in UTC.
	Cron string `yaml:"cron"`
	// RunOnStart triggers one run immediately when serving starts.
	RunOnStart bool `yaml:"run_on_start"`
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider: provider.Microsoft,
		Graph:    graph.DefaultConfig(),
		ClickUp:  clickup.DefaultConfig(),
		OpenAI:   openai.DefaultConfig(),
		Database: store.Options{Driver: store.DriverPostgres},
		Engine:   reconcile.DefaultConfig(),
		Schedule: ScheduleConfig{
			Cron:    DefaultSchedule,
			Timeout: 25 * time.Minute,
		},
		Log:     logging.Config{Level: "info", Format: logging.FormatText},
		Metrics: instrumentation.DefaultConfig(),
		Server:  server.DefaultConfig(),
	}
}

// Load reads the configuration. An empty path skips the YAML file. The
// .env file in the working directory is loaded when present; envFile
// overrides its location.
func Load(path, envFile string) (*Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

func loadDotEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// decode overlays YAML onto c. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}

	str(&c.Provider, "MEETINGSYNC_PROVIDER")

	str(&c.Graph.TenantID, "GRAPH_TENANT_ID", "AZURE_TENANT_ID")
	str(&c.Graph.ClientID, "GRAPH_APP_CLIENT_ID", "AZURE_CLIENT_ID")
	str(&c.Graph.ClientSecret, "GRAPH_APP_CLIENT_SECRET", "AZURE_CLIENT_SECRET")
	str(&c.Graph.TokenURL, "GRAPH_APP_URL")

	str(&c.Google.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	str(&c.Google.AdminSubject, "GOOGLE_ADMIN_SUBJECT")

	str(&c.ClickUp.Token, "CLICKUP_API_TOKEN")
	str(&c.ClickUp.UsersListID, "CLICKUP_USERS_LIST_ID")

	str(&c.OpenAI.APIKey, "OPENAI_API_KEY", "AZURE_OPENAI_API_KEY")
	str(&c.OpenAI.BaseURL, "OPENAI_URL", "AZURE_OPENAI_ENDPOINT")

	str(&c.Database.Driver, "DATABASE_DRIVER")
	str(&c.Database.DSN, "DATABASE_DSN", "DATABASE_URL")

	str(&c.Schedule.Cron, "MEETINGSYNC_SCHEDULE")
	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.Format, "LOG_FORMAT")
	str(&c.Log.File, "LOG_FILE")
}

// Validate checks every section the selected provider needs. All problems
// are reported at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(section string, err error) {
		switch {
		case err == nil:
		case section == "":
			problems = append(problems, err.Error())
		default:
			problems = append(problems, fmt.Sprintf("%s: %v", section, err))
		}
	}

	switch provider.Normalize(c.Provider) {
	case provider.Microsoft:
		add("graph", c.Graph.Validate())
	case provider.Google:
		add("", c.Google.Validate())
	default:
		problems = append(problems, fmt.Sprintf("provider: unsupported provider %q (expected one of %s)",
			c.Provider, strings.Join(provider.Names(), ", ")))
	}

	add("clickup", c.ClickUp.Validate())
	add("openai", c.OpenAI.Validate())
	add("database", c.validateDatabase())
	add("", c.Engine.Validate())
	add("schedule", c.Schedule.validate())
	add("metrics", c.Metrics.Validate())
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log", err)
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// ValidateStore checks only what commands that touch the database need.
func (c *Config) ValidateStore() error {
	if err := c.validateDatabase(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("dsn is required")
	}
	switch strings.ToLower(c.Database.Driver) {
	case store.DriverPostgres, store.DriverSQLServer, store.DriverSQLite, "":
		return nil
	default:
		return fmt.Errorf("unsupported driver %q", c.Database.Driver)
	}
}

func (s ScheduleConfig) validate() error {
	if s.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if s.Cron == "" {
		return nil
	}
	if _, err := cron.ParseStandard(s.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.Cron, err)
	}
	return nil
}

// Summary renders the effective configuration with secrets masked.
func (c *Config) Summary() string {
	return fmt.Sprintf(`Configuration:
  Provider: %s
  Graph:
    - Tenant: %s
    - Client ID: %s
    - Client Secret: %s
  Google:
    - Credentials: %s
    - Admin Subject: %s
  ClickUp:
    - Token: %s
    - Event List: %s
    - Users List: %s
  OpenAI:
    - Type: %s
    - Model: %s
    - API Key: %s
  Database:
    - Driver: %s
    - DSN: %s
  Engine:
    - Categories: %v
    - Static Users: %d
    - Window Offset: %s
    - Transcript Attempts: %d
  Schedule: %s
  Log: %s/%s`,
		provider.Normalize(c.Provider),
		c.Graph.TenantID,
		c.Graph.ClientID,
		logging.SanitizeToken(c.Graph.ClientSecret),
		c.Google.CredentialsFile,
		c.Google.AdminSubject,
		logging.SanitizeToken(c.ClickUp.Token),
		c.ClickUp.EventListID,
		c.ClickUp.UsersListID,
		c.OpenAI.APIType,
		c.OpenAI.Model,
		logging.SanitizeToken(c.OpenAI.APIKey),
		c.Database.Driver,
		logging.SanitizeToken(c.Database.DSN),
		c.Engine.Categories,
		len(c.Engine.Users),
		c.Engine.WindowOffset,
		c.Engine.TranscriptAttempts,
		c.Schedule.Cron,
		c.Log.Level,
		c.Log.Format,
	)
}
