package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/meeting"
)

// Names of the caseload custom fields holding client addresses.
const (
	fieldEmail           = "Email"
	fieldEmailAssociates = "Email - Associates"
)

const eventTaskDescription = "Created by meetingsync."

// maxPages bounds paging through list and view tasks.
const maxPages = 50

type customFieldValue struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

type createTaskRequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Status       string             `json:"status,omitempty"`
	CustomFields []customFieldValue `json:"custom_fields,omitempty"`
}

type updateTaskRequest struct {
	Description string `json:"description"`
	Status      string `json:"status"`
}

type taskResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type customField struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// text returns the field value when it is a JSON string.
func (f customField) text() string {
	var s string
	if len(f.Value) == 0 || json.Unmarshal(f.Value, &s) != nil {
		return ""
	}
	return s
}

type task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CustomFields []customField `json:"custom_fields"`
}

type tasksPage struct {
	Tasks    []task `json:"tasks"`
	LastPage bool   `json:"last_page"`
}

// CreateTask creates the event task with its detail and progress fields.
func (c *Client) CreateTask(ctx context.Context, d meeting.TaskDetails) (id string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceClickUp, instrumentation.OperationCreateTask)
	defer func() { done(err) }()

	f := c.cfg.Fields
	req := createTaskRequest{
		Name:        d.Name,
		Description: eventTaskDescription,
		Status:      c.cfg.createStatus(),
		CustomFields: []customFieldValue{
			{ID: f.Adviser, Value: d.Adviser},
			{ID: f.Organizer, Value: meeting.FormatFlag(d.IsOrganizer)},
			{ID: f.Cancelled, Value: meeting.FormatFlag(d.IsCancelled)},
			{ID: f.StartTime, Value: d.Start},
			{ID: f.Duration, Value: d.Duration},
			{ID: f.Categories, Value: d.Categories},
			{ID: f.Attendees, Value: d.Attendees},
			{ID: f.TranscriptFound, Value: d.Progress.TranscriptFound},
			{ID: f.SummaryGenerated, Value: d.Progress.SummaryGenerated},
			{ID: f.Summary, Value: d.Progress.Summary},
			{ID: f.Delivered, Value: d.Progress.Delivered},
		},
	}

	var resp taskResponse
	path := fmt.Sprintf("/list/%s/task", url.PathEscape(c.cfg.EventListID))
	if err := c.call(ctx, instrumentation.OperationCreateTask, http.MethodPost, path, req, &resp); err != nil {
		return "", fmt.Errorf("failed to create task %q: %w", d.Name, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create task %q returned no task id", d.Name)
	}
	return resp.ID, nil
}

// UpdateTaskFields writes the four progress fields, one request per field.
func (c *Client) UpdateTaskFields(ctx context.Context, taskID string, p meeting.Progress) (err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceClickUp, instrumentation.OperationUpdateFields)
	defer func() { done(err) }()

	f := c.cfg.Fields
	updates := []customFieldValue{
		{ID: f.TranscriptFound, Value: p.TranscriptFound},
		{ID: f.SummaryGenerated, Value: p.SummaryGenerated},
		{ID: f.Summary, Value: p.Summary},
		{ID: f.Delivered, Value: p.Delivered},
	}
	for _, u := range updates {
		path := fmt.Sprintf("/task/%s/field/%s", url.PathEscape(taskID), url.PathEscape(u.ID))
		body := map[string]any{"value": u.Value}
		if err := c.call(ctx, instrumentation.OperationUpdateFields, http.MethodPost, path, body, nil); err != nil {
			return fmt.Errorf("failed to update field %s of task %s: %w", u.ID, taskID, err)
		}
	}
	c.logger.Debug("task progress updated", logging.TaskID(taskID), slog.String("progress", p.String()))
	return nil
}

// SetTaskStatus moves a task to status and replaces its description.
func (c *Client) SetTaskStatus(ctx context.Context, taskID string, status meeting.TaskStatus, description string) (err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceClickUp, instrumentation.OperationSetStatus)
	defer func() { done(err) }()

	path := fmt.Sprintf("/task/%s", url.PathEscape(taskID))
	req := updateTaskRequest{Description: description, Status: string(status)}
	if err := c.call(ctx, instrumentation.OperationSetStatus, http.MethodPut, path, req, nil); err != nil {
		return fmt.Errorf("failed to set status of task %s: %w", taskID, err)
	}
	return nil
}

// CreateTaskInContainer files a task into a list.
func (c *Client) CreateTaskInContainer(ctx context.Context, listID, name, body string) (id string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceClickUp, instrumentation.OperationCreateNote)
	defer func() { done(err) }()

	var resp taskResponse
	path := fmt.Sprintf("/list/%s/task", url.PathEscape(listID))
	req := createTaskRequest{Name: name, Description: body}
	if err := c.call(ctx, instrumentation.OperationCreateNote, http.MethodPost, path, req, &resp); err != nil {
		return "", fmt.Errorf("failed to create task in list %s: %w", listID, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create task in list %s returned no task id", listID)
	}
	return resp.ID, nil
}

// ListUsers returns the task names of the users list.
func (c *Client) ListUsers(ctx context.Context) (users []string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceClickUp, instrumentation.OperationListUsers)
	defer func() { done(err) }()

	if c.cfg.UsersListID == "" {
		return nil, fmt.Errorf("users_list_id is not configured")
	}
	base := fmt.Sprintf("/list/%s/task", url.PathEscape(c.cfg.UsersListID))
	err = c.pages(ctx, instrumentation.OperationListUsers, base, nil, func(tasks []task) bool {
		for _, t := range tasks {
			if name := strings.TrimSpace(t.Name); name != "" {
				users = append(users, name)
			}
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// FindTaskByAttendeeEmail searches the caseload view, filtered to the
// category's status, for a task whose Email field equals the address or
// whose Email - Associates field contains it.
func (c *Client) FindTaskByAttendeeEmail(ctx context.Context, email string, category meeting.ClientCategory) (name string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceClickUp, instrumentation.OperationFindClientTask)
	defer func() { done(lookupErr(err)) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return "", meeting.ErrNotFound
	}
	needle := strings.ToLower(email)

	base := fmt.Sprintf("/view/%s/task", url.PathEscape(c.cfg.CaseloadViewID))
	query := url.Values{"status": {string(category)}}
	err = c.pages(ctx, instrumentation.OperationFindClientTask, base, query, func(tasks []task) bool {
		for _, t := range tasks {
			if holdsAddress(t, email, needle) {
				name = t.Name
				return true
			}
		}
		return false
	})
	if err != nil {
		return "", fmt.Errorf("failed to search caseload %s: %w", category, err)
	}
	if name == "" {
		return "", meeting.ErrNotFound
	}
	return name, nil
}

// lookupErr hides an empty lookup from call metrics.
func lookupErr(err error) error {
	if errors.Is(err, meeting.ErrNotFound) {
		return nil
	}
	return err
}

func holdsAddress(t task, email, lowered string) bool {
	for _, f := range t.CustomFields {
		v := f.text()
		if v == "" {
			continue
		}
		switch f.Name {
		case fieldEmail:
			if strings.EqualFold(strings.TrimSpace(v), email) {
				return true
			}
		case fieldEmailAssociates:
			if strings.Contains(strings.ToLower(v), lowered) {
				return true
			}
		}
	}
	return false
}

// FindContainerByTaskName returns the ID of the list named taskName in the
// category's client folder.
func (c *Client) FindContainerByTaskName(ctx context.Context, taskName string, category meeting.ClientCategory) (id string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, c.metrics, instrumentation.ServiceClickUp, instrumentation.OperationFindContainer)
	defer func() { done(lookupErr(err)) }()

	folder := c.cfg.ClientFolders[category]
	if folder == "" {
		return "", fmt.Errorf("no client folder configured for %s", category)
	}

	var resp struct {
		Lists []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"lists"`
	}
	path := fmt.Sprintf("/folder/%s/list", url.PathEscape(folder))
	if err := c.call(ctx, instrumentation.OperationFindContainer, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to list folder %s: %w", folder, err)
	}
	for _, l := range resp.Lists {
		if l.Name == taskName {
			return l.ID, nil
		}
	}
	return "", meeting.ErrNotFound
}

// pages walks a paginated task listing until visit reports done, the last
// page is reached or maxPages is exceeded.
func (c *Client) pages(ctx context.Context, op, base string, query url.Values, visit func([]task) bool) error {
	if query == nil {
		query = url.Values{}
	}
	for page := 0; page < maxPages; page++ {
		query.Set("page", strconv.Itoa(page))
		var resp tasksPage
		if err := c.call(ctx, op, http.MethodGet, base+"?"+query.Encode(), nil, &resp); err != nil {
			return err
		}
		if visit(resp.Tasks) || resp.LastPage || len(resp.Tasks) == 0 {
			return nil
		}
	}
	c.logger.Warn("stopped paging task listing", logging.Operation(op), slog.Int("pages", maxPages))
	return nil
}
