package meet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	meet "google.golang.org/api/meet/v2"
	"google.golang.org/api/option"

	"github.com/teemow/meetingsync/internal/google"
	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/meeting"
)

// Transcript states whose entries can be read.
const (
	stateEnded         = "ENDED"
	stateFileGenerated = "FILE_GENERATED"
)

const unknownSpeaker = "Unknown"

// ServiceFactory returns a Meet service acting as user.
type ServiceFactory func(ctx context.Context, user string) (*meet.Service, error)

// EmailResolver maps a directory ID to the user's primary address.
type EmailResolver interface {
	PrimaryEmail(ctx context.Context, emailOrID string) (string, error)
}

// Client reads Meet transcripts on behalf of calendar owners.
type Client struct {
	services  ServiceFactory
	directory EmailResolver
	metrics   *instrumentation.Metrics
	logger    *slog.Logger

	mu           sync.Mutex
	cache        map[string]*meet.Service
	owners       map[string]string // transcript name -> impersonated user
	meetingCodes map[string]string // space name -> meeting code
	speakers     map[string]string // participant name -> display name
}

// NewClient creates a Client impersonating owners through sa.
func NewClient(sa *google.ServiceAccount, dir EmailResolver, metrics *instrumentation.Metrics, logger *slog.Logger) *Client {
	factory := func(ctx context.Context, user string) (*meet.Service, error) {
		httpClient, err := sa.HTTPClient(ctx, user, google.MeetScopes...)
		if err != nil {
			return nil, err
		}
		return meet.NewService(ctx, option.WithHTTPClient(httpClient))
	}
	return NewClientWithFactory(factory, dir, metrics, logger)
}

// NewClientWithFactory creates a Client with a custom service factory.
func NewClientWithFactory(factory ServiceFactory, dir EmailResolver, metrics *instrumentation.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		services:     factory,
		directory:    dir,
		metrics:      metrics,
		logger:       logger,
		cache:        make(map[string]*meet.Service),
		owners:       make(map[string]string),
		meetingCodes: make(map[string]string),
		speakers:     make(map[string]string),
	}
}

func (c *Client) service(ctx context.Context, user string) (*meet.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if svc, ok := c.cache[user]; ok {
		return svc, nil
	}
	svc, err := c.services(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create Meet service for %s: %w", user, err)
	}
	c.cache[user] = svc
	return svc, nil
}

// ListTranscripts returns the readable transcripts of conferences the user
// took part in that started within [start, end].
func (c *Client) ListTranscripts(ctx context.Context, directoryID string, start, end time.Time) (refs []meeting.TranscriptRef, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceGoogle, instrumentation.OperationListTranscripts)
	defer func() { done(err) }()

	user, err := c.directory.PrimaryEmail(ctx, directoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transcript owner: %w", err)
	}
	svc, err := c.service(ctx, user)
	if err != nil {
		return nil, err
	}

	var records []*meet.ConferenceRecord
	err = svc.ConferenceRecords.List().
		Filter(conferenceFilter(start, end)).
		Pages(ctx, func(page *meet.ListConferenceRecordsResponse) error {
			records = append(records, page.ConferenceRecords...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list conference records: %w", err)
	}

	for _, rec := range records {
		code, err := c.meetingCode(ctx, svc, rec.Space)
		if err != nil {
			return nil, err
		}

		err = svc.ConferenceRecords.Transcripts.List(rec.Name).Pages(ctx, func(page *meet.ListTranscriptsResponse) error {
			for _, tr := range page.Transcripts {
				if tr.State != stateEnded && tr.State != stateFileGenerated {
					continue
				}
				refs = append(refs, meeting.TranscriptRef{
					ID:         tr.Name,
					MeetingID:  code,
					ContentURL: tr.Name,
					CreatedAt:  parseTime(tr.StartTime),
				})
				c.rememberOwner(tr.Name, user)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list transcripts of %s: %w", rec.Name, err)
		}
	}
	return refs, nil
}

// FetchTranscriptText renders a transcript listed by ListTranscripts.
func (c *Client) FetchTranscriptText(ctx context.Context, name string) (text string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceGoogle, instrumentation.OperationFetchTranscript)
	defer func() { done(err) }()

	c.mu.Lock()
	user, ok := c.owners[name]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("transcript %s was not listed by this client", name)
	}
	svc, err := c.service(ctx, user)
	if err != nil {
		return "", err
	}

	var lines []string
	err = svc.ConferenceRecords.Transcripts.Entries.List(name).Pages(ctx, func(page *meet.ListTranscriptEntriesResponse) error {
		for _, entry := range page.TranscriptEntries {
			text := strings.TrimSpace(entry.Text)
			if text == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("<v %s>%s</v>", c.speaker(ctx, svc, entry.Participant), text))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to list transcript entries: %w", err)
	}
	if len(lines) == 0 {
		return "", nil
	}
	return "WEBVTT\n\n" + strings.Join(lines, "\n\n") + "\n", nil
}

func (c *Client) rememberOwner(transcript, user string) {
	c.mu.Lock()
	c.owners[transcript] = user
	c.mu.Unlock()
}

func (c *Client) meetingCode(ctx context.Context, svc *meet.Service, space string) (string, error) {
	c.mu.Lock()
	code, ok := c.meetingCodes[space]
	c.mu.Unlock()
	if ok {
		return code, nil
	}

	s, err := svc.Spaces.Get(space).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get space %s: %w", space, err)
	}

	c.mu.Lock()
	c.meetingCodes[space] = s.MeetingCode
	c.mu.Unlock()
	return s.MeetingCode, nil
}

// speaker resolves a participant's display name. Lookup failures are logged
// and rendered as an unknown speaker.
func (c *Client) speaker(ctx context.Context, svc *meet.Service, participant string) string {
	if participant == "" {
		return unknownSpeaker
	}

	c.mu.Lock()
	name, ok := c.speakers[participant]
	c.mu.Unlock()
	if ok {
		return name
	}

	p, err := svc.ConferenceRecords.Participants.Get(participant).Context(ctx).Do()
	if err != nil {
		c.logger.Warn("failed to resolve transcript speaker",
			slog.String("participant", participant),
			slog.String("error", err.Error()))
		return unknownSpeaker
	}
	name = participantName(p)

	c.mu.Lock()
	c.speakers[participant] = name
	c.mu.Unlock()
	return name
}

func participantName(p *meet.Participant) string {
	switch {
	case p == nil:
		return unknownSpeaker
	case p.SignedinUser != nil && p.SignedinUser.DisplayName != "":
		return p.SignedinUser.DisplayName
	case p.AnonymousUser != nil && p.AnonymousUser.DisplayName != "":
		return p.AnonymousUser.DisplayName
	case p.PhoneUser != nil && p.PhoneUser.DisplayName != "":
		return p.PhoneUser.DisplayName
	default:
		return unknownSpeaker
	}
}

// conferenceFilter builds the conference record filter for a start window.
func conferenceFilter(start, end time.Time) string {
	return fmt.Sprintf(`start_time>="%s" AND start_time<="%s"`,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
