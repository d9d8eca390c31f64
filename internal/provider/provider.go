// Package provider wires the calendar, transcript and matching
// implementations of one meeting platform.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/meetingsync/internal/calendar"
	"github.com/teemow/meetingsync/internal/google"
	"github.com/teemow/meetingsync/internal/graph"
	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/meet"
	"github.com/teemow/meetingsync/internal/meeting"
	"github.com/teemow/meetingsync/internal/reconcile"
)

// Supported providers.
const (
	Microsoft = "microsoft"
	Google    = "google"
)

// Names lists the supported providers.
func Names() []string {
	return []string{Microsoft, Google}
}

// Sources are the platform collaborators of the reconciliation engine.
type Sources struct {
	Name        string
	Calendar    reconcile.CalendarSource
	Transcripts reconcile.TranscriptSource
	Matcher     meeting.Matcher
}

// Options carries the per-platform settings.
type Options struct {
	Name    string
	Graph   graph.Config
	Google  google.Config
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// New builds the Sources for opts.Name.
func New(ctx context.Context, opts Options) (*Sources, error) {
	name := Normalize(opts.Name)
	matcher, err := MatcherFor(name)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch name {
	case Microsoft:
		client, err := graph.NewClient(ctx, opts.Graph, opts.Metrics, logger)
		if err != nil {
			return nil, err
		}
		return &Sources{Name: name, Calendar: client, Transcripts: client, Matcher: matcher}, nil

	case Google:
		if err := opts.Google.Validate(); err != nil {
			return nil, err
		}
		sa, err := google.LoadServiceAccount(opts.Google.CredentialsFile)
		if err != nil {
			return nil, err
		}
		dir, err := google.NewDirectory(ctx, sa, opts.Google.AdminSubject)
		if err != nil {
			return nil, err
		}
		return &Sources{
			Name:        name,
			Calendar:    calendar.NewClient(sa, dir, opts.Google, opts.Metrics, logger),
			Transcripts: meet.NewClient(sa, dir, opts.Metrics, logger),
			Matcher:     matcher,
		}, nil
	}
	return nil, fmt.Errorf("unsupported provider %q", opts.Name)
}

// MatcherFor returns the identifier matcher of a provider.
func MatcherFor(name string) (meeting.Matcher, error) {
	switch Normalize(name) {
	case Microsoft:
		return meeting.TeamsMatcher, nil
	case Google:
		return meeting.MeetMatcher, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q (expected one of %s)", name, strings.Join(Names(), ", "))
	}
}

// Normalize maps aliases to a provider name. Empty means Microsoft.
func Normalize(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Microsoft, "graph", "teams":
		return Microsoft
	case Google, "workspace", "meet":
		return Google
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}
