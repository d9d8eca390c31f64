package graph

import (
	"fmt"
	"strings"

	"github.com/teemow/meetingsync/internal/retry"
)

// Default endpoints.
const (
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"
	DefaultScope   = "https://graph.microsoft.com/.default"

	tokenURLTemplate = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
)

// Config holds the app registration used for Graph calls.
type Config struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// TokenURL overrides the tenant token endpoint.
	TokenURL string `yaml:"token_url"`
	BaseURL  string `yaml:"base_url"`

	Retry retry.Policy `yaml:"retry"`
}

// DefaultConfig returns a Config with public cloud endpoints.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Retry:   retry.DefaultPolicy(),
	}
}

// Validate checks that credentials are present.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if c.TenantID == "" && c.TokenURL == "" {
		return fmt.Errorf("tenant_id or token_url is required")
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}

func (c Config) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return fmt.Sprintf(tokenURLTemplate, c.TenantID)
}

func (c Config) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}
