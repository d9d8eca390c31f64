package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/meetingsync/internal/google"
	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/meeting"
)

const (
	defaultCalendarID         = "primary"
	defaultCategoriesProperty = "categories"
)

// ServiceFactory returns a Calendar service acting as user.
type ServiceFactory func(ctx context.Context, user string) (*calendar.Service, error)

// Client lists Workspace calendars on behalf of each owner.
type Client struct {
	services   ServiceFactory
	directory  *google.Directory
	calendarID string
	property   string
	metrics    *instrumentation.Metrics
	logger     *slog.Logger

	mu    sync.Mutex
	cache map[string]*calendar.Service
}

// NewClient creates a Client impersonating owners through sa.
func NewClient(sa *google.ServiceAccount, dir *google.Directory, cfg google.Config, metrics *instrumentation.Metrics, logger *slog.Logger) *Client {
	factory := func(ctx context.Context, user string) (*calendar.Service, error) {
		httpClient, err := sa.HTTPClient(ctx, user, google.CalendarScopes...)
		if err != nil {
			return nil, err
		}
		return calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	}
	return NewClientWithFactory(factory, dir, cfg, metrics, logger)
}

// NewClientWithFactory creates a Client with a custom service factory.
func NewClientWithFactory(factory ServiceFactory, dir *google.Directory, cfg google.Config, metrics *instrumentation.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		services:   factory,
		directory:  dir,
		calendarID: cfg.CalendarID,
		property:   cfg.CategoriesProperty,
		metrics:    metrics,
		logger:     logger,
		cache:      make(map[string]*calendar.Service),
	}
	if c.calendarID == "" {
		c.calendarID = defaultCalendarID
	}
	if c.property == "" {
		c.property = defaultCategoriesProperty
	}
	return c
}

func (c *Client) service(ctx context.Context, user string) (*calendar.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if svc, ok := c.cache[user]; ok {
		return svc, nil
	}
	svc, err := c.services(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service for %s: %w", user, err)
	}
	c.cache[user] = svc
	return svc, nil
}

// ListEvents returns the user's events between start and end, recurring
// events expanded into instances and ordered by start time.
func (c *Client) ListEvents(ctx context.Context, user string, start, end time.Time) (events []meeting.Event, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceGoogle, instrumentation.OperationListEvents)
	defer func() { done(err) }()

	svc, err := c.service(ctx, user)
	if err != nil {
		return nil, err
	}

	call := svc.Events.List(c.calendarID).
		TimeMin(start.UTC().Format(time.RFC3339)).
		TimeMax(end.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(true).
		OrderBy("startTime").
		TimeZone("UTC")

	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			ev, ok := toEvent(item, c.property)
			if !ok {
				c.logger.Debug("skipping calendar entry without times", slog.String("event_id", item.Id))
				continue
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ResolveDirectoryID looks the user up in the Workspace directory.
func (c *Client) ResolveDirectoryID(ctx context.Context, emailOrID string, field meeting.DirectoryField) (id string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceGoogle, instrumentation.OperationResolveDirectory)
	defer func() { done(err) }()

	return c.directory.Lookup(ctx, emailOrID, field)
}
