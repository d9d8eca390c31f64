package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Config holds the Google Workspace settings.
type Config struct {
	// CredentialsFile is the path of the service account JSON key.
	CredentialsFile string `yaml:"credentials_file"`

	// AdminSubject is the administrator impersonated for directory lookups.
	AdminSubject string `yaml:"admin_subject"`

	// CalendarID is the calendar listed for each user (default: primary).
	CalendarID string `yaml:"calendar_id"`

	// CategoriesProperty is the extended event property holding the
	// comma-separated categories (default: categories).
	CategoriesProperty string `yaml:"categories_property"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.CredentialsFile == "" {
		return errors.New("google.credentials_file is required")
	}
	if c.AdminSubject == "" {
		return errors.New("google.admin_subject is required")
	}
	return nil
}

// TokenProvider returns token sources that act on behalf of a user.
type TokenProvider interface {
	TokenSource(ctx context.Context, subject string, scopes ...string) (oauth2.TokenSource, error)
}

// ServiceAccount impersonates Workspace users with a delegated key.
type ServiceAccount struct {
	key []byte

	mu      sync.Mutex
	clients map[string]*http.Client
}

// LoadServiceAccount reads a service account key from disk.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key: %w", err)
	}
	return NewServiceAccount(key)
}

// NewServiceAccount parses a service account JSON key.
func NewServiceAccount(key []byte) (*ServiceAccount, error) {
	if _, err := google.JWTConfigFromJSON(key); err != nil {
		return nil, fmt.Errorf("invalid service account key: %w", err)
	}
	return &ServiceAccount{key: key, clients: make(map[string]*http.Client)}, nil
}

// TokenSource returns a token source impersonating subject.
func (s *ServiceAccount) TokenSource(ctx context.Context, subject string, scopes ...string) (oauth2.TokenSource, error) {
	if subject == "" {
		return nil, errors.New("subject cannot be empty")
	}
	conf, err := google.JWTConfigFromJSON(s.key, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid service account key: %w", err)
	}
	conf.Subject = subject
	return conf.TokenSource(ctx), nil
}

// HTTPClient returns an authenticated client impersonating subject. Clients
// are reused for the same subject and scopes.
func (s *ServiceAccount) HTTPClient(ctx context.Context, subject string, scopes ...string) (*http.Client, error) {
	key := cacheKey(subject, scopes)

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[key]; ok {
		return c, nil
	}

	ts, err := s.TokenSource(ctx, subject, scopes...)
	if err != nil {
		return nil, err
	}
	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	s.clients[key] = client
	return client, nil
}

func cacheKey(subject string, scopes []string) string {
	sorted := append([]string(nil), scopes...)
	sort.Strings(sorted)
	return strings.ToLower(subject) + "|" + strings.Join(sorted, " ")
}
