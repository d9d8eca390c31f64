package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/meeting"
)

type directoryUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Mail        string `json:"mail"`
}

type transcript struct {
	ID                   string    `json:"id"`
	MeetingID            string    `json:"meetingId"`
	TranscriptContentURL string    `json:"transcriptContentUrl"`
	CreatedDateTime      time.Time `json:"createdDateTime"`
}

// ResolveDirectoryID returns the requested attribute of the user whose mail
// matches emailOrID. It returns meeting.ErrNotFound when no user matches.
func (c *Client) ResolveDirectoryID(ctx context.Context, emailOrID string, field meeting.DirectoryField) (value string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceGraph, instrumentation.OperationResolveDirectory)
	defer func() { done(err) }()

	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("mail eq '%s'", escapeODataString(emailOrID)))
	q.Set("$select", "id,displayName,mail")

	users, err := list[directoryUser](ctx, c, request{
		op:  instrumentation.OperationResolveDirectory,
		url: fmt.Sprintf("%s/users?%s", c.baseURL, q.Encode()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to look up user %s: %w", emailOrID, err)
	}
	if len(users) == 0 {
		return "", meeting.ErrNotFound
	}

	switch field {
	case meeting.FieldID:
		value = users[0].ID
	case meeting.FieldDisplayName:
		value = users[0].DisplayName
	default:
		return "", fmt.Errorf("unsupported directory field %q", field)
	}
	if value == "" {
		return "", meeting.ErrNotFound
	}
	return value, nil
}

// ListTranscripts returns the transcripts of online meetings organized by
// the directory user and created within [start, end].
func (c *Client) ListTranscripts(ctx context.Context, directoryID string, start, end time.Time) (refs []meeting.TranscriptRef, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceGraph, instrumentation.OperationListTranscripts)
	defer func() { done(err) }()

	id := url.PathEscape(directoryID)
	fn := fmt.Sprintf("getAllTranscripts(meetingOrganizerUserId='%s',startDateTime=%s,endDateTime=%s)",
		escapeODataString(directoryID),
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339))

	items, err := list[transcript](ctx, c, request{
		op:  instrumentation.OperationListTranscripts,
		url: fmt.Sprintf("%s/users/%s/onlineMeetings/%s", c.baseURL, id, fn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	refs = make([]meeting.TranscriptRef, 0, len(items))
	for _, t := range items {
		refs = append(refs, meeting.TranscriptRef{
			ID:         t.ID,
			MeetingID:  t.MeetingID,
			ContentURL: t.TranscriptContentURL,
			CreatedAt:  t.CreatedDateTime.UTC(),
		})
	}
	return refs, nil
}

// FetchTranscriptText downloads a transcript body as WebVTT.
func (c *Client) FetchTranscriptText(ctx context.Context, contentURL string) (text string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceGraph, instrumentation.OperationFetchTranscript)
	defer func() { done(err) }()

	if contentURL == "" {
		return "", fmt.Errorf("empty transcript content URL")
	}
	body, err := c.get(ctx, request{
		op:     instrumentation.OperationFetchTranscript,
		url:    contentURL,
		accept: "text/vtt",
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch transcript: %w", err)
	}
	return string(body), nil
}

func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
