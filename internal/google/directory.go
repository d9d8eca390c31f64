package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/meetingsync/internal/meeting"
)

// Directory resolves Workspace users.
type Directory struct {
	svc *admin.Service

	mu    sync.Mutex
	users map[string]*admin.User
}

// NewDirectory creates a Directory acting as the admin subject.
func NewDirectory(ctx context.Context, sa *ServiceAccount, adminSubject string) (*Directory, error) {
	client, err := sa.HTTPClient(ctx, adminSubject, DirectoryScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory HTTP client: %w", err)
	}
	return NewDirectoryWithOptions(ctx, option.WithHTTPClient(client))
}

// NewDirectoryWithOptions creates a Directory from explicit client options.
func NewDirectoryWithOptions(ctx context.Context, opts ...option.ClientOption) (*Directory, error) {
	svc, err := admin.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Directory service: %w", err)
	}
	return &Directory{svc: svc, users: make(map[string]*admin.User)}, nil
}

// Lookup returns the requested attribute of the user identified by an email
// address or directory ID. It returns meeting.ErrNotFound for unknown users.
func (d *Directory) Lookup(ctx context.Context, emailOrID string, field meeting.DirectoryField) (string, error) {
	user, err := d.user(ctx, emailOrID)
	if err != nil {
		return "", err
	}

	switch field {
	case meeting.FieldID:
		return user.Id, nil
	case meeting.FieldDisplayName:
		if user.Name != nil && user.Name.FullName != "" {
			return user.Name.FullName, nil
		}
		return user.PrimaryEmail, nil
	default:
		return "", fmt.Errorf("unsupported directory field %q", field)
	}
}

// PrimaryEmail returns the primary address of a user.
func (d *Directory) PrimaryEmail(ctx context.Context, emailOrID string) (string, error) {
	user, err := d.user(ctx, emailOrID)
	if err != nil {
		return "", err
	}
	return user.PrimaryEmail, nil
}

func (d *Directory) user(ctx context.Context, key string) (*admin.User, error) {
	if key == "" {
		return nil, meeting.ErrNotFound
	}

	d.mu.Lock()
	cached, ok := d.users[key]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	user, err := d.svc.Users.Get(key).Fields("id", "primaryEmail", "name").Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, meeting.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get directory user: %w", err)
	}

	d.mu.Lock()
	d.users[key] = user
	d.users[user.Id] = user
	d.mu.Unlock()
	return user, nil
}
