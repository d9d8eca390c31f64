package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/meetingsync/internal/config"
	"github.com/teemow/meetingsync/internal/logging"
)

// rootCmd represents the base command for the meetingsync application
var rootCmd = &cobra.Command{
	Use:   "meetingsync",
	Short: "Files AI summaries of recorded client meetings into ClickUp",
	Long: `meetingsync lists the calendars of a team's advisers, waits for each client
meeting to end, fetches its Teams or Meet transcript, summarizes it with an
OpenAI model and files the summary into the client's ClickUp list.

Progress is tracked per calendar event in a SQL table so every run is
idempotent. It can run as:
  - A one-shot job (run), e.g. from a Kubernetes CronJob
  - A long-running scheduler with metrics and health endpoints (serve)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
	provider   string
	logLevel   string
	logFormat  string
}

var flags globalFlags

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "meetingsync version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "Path to the YAML configuration file. Can also use MEETINGSYNC_CONFIG env var.")
	pf.StringVar(&flags.envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	pf.StringVar(&flags.provider, "provider", "", "Meeting platform: microsoft or google. Overrides the configuration.")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newRecordsCmd())
	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig builds the configuration: defaults, file, environment, flags.
func loadConfig(f globalFlags) (*config.Config, error) {
	path := f.configFile
	if path == "" {
		path = os.Getenv("MEETINGSYNC_CONFIG")
	}
	cfg, err := config.Load(path, f.envFile)
	if err != nil {
		return nil, err
	}
	f.apply(cfg)
	return cfg, nil
}

func (f globalFlags) apply(cfg *config.Config) {
	if f.provider != "" {
		cfg.Provider = f.provider
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
}

// setupLogger builds the process logger and makes it the slog default.
func setupLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(logger)
	return logger, closer, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of meetingsync",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meetingsync version %s\n", version)
		},
	}
}
