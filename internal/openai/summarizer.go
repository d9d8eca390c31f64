// Package openai summarizes meeting transcripts with an OpenAI or Azure
// OpenAI chat completion deployment.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/teemow/meetingsync/internal/instrumentation"
)

// API flavours.
const (
	APITypeOpenAI = "openai"
	APITypeAzure  = "azure"
)

const (
	DefaultModel      = openai.GPT4o
	DefaultAPIVersion = "2024-06-01"
)

// ErrEmptySummary is returned when the model answered with no content.
var ErrEmptySummary = errors.New("model returned an empty summary")

// Prompt is the system prompt sent ahead of every transcript.
const Prompt = `You are a business advisor specializing in business strategy and sales. Based on the transcript of a recent client call, perform the following tasks:
Key Discussion Points: Extract and bullet point the key insights or takeaways from the conversation.
Decisions Made: Identify any final decisions or conclusions reached during the meeting.
Action Items: List specific tasks or follow-ups assigned to team members, including deadlines or individuals responsible.
Summary: Summarize the transcript after listing the key points.
Sentiment Analysis: Conduct a thorough sentiment analysis of the overall conversation.

Guidelines:
Do not place the summary at the beginning.
Provide as much detail as possible for each section.

Use this format:

KEY DISCUSSION POINTS:
• [value]
• [value]

DECISIONS MADE:
• [value]
• [value]

ACTION ITEMS:
• [value]
• [value]

SUMMARY:
[value]

SENTIMENT ANALYSIS:
[value]`

// Config selects the model endpoint.
type Config struct {
	APIType string `yaml:"api_type"`
	APIKey  string `yaml:"api_key"`
	// BaseURL is the Azure resource endpoint or an OpenAI-compatible base URL.
	BaseURL string `yaml:"base_url"`
	// Model is the model name, or the deployment name on Azure.
	Model      string `yaml:"model"`
	APIVersion string `yaml:"api_version"`

	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// DefaultConfig returns an OpenAI configuration without credentials.
func DefaultConfig() Config {
	return Config{
		APIType:    APITypeOpenAI,
		Model:      DefaultModel,
		APIVersion: DefaultAPIVersion,
	}
}

// Validate checks the endpoint settings.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	switch c.APIType {
	case APITypeOpenAI, "":
	case APITypeAzure:
		if c.BaseURL == "" {
			return fmt.Errorf("base_url is required for azure")
		}
	default:
		return fmt.Errorf("unsupported api_type %q", c.APIType)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	return nil
}

func (c Config) clientConfig() openai.ClientConfig {
	if c.APIType == APITypeAzure {
		cc := openai.DefaultAzureConfig(c.APIKey, c.BaseURL)
		if c.APIVersion != "" {
			cc.APIVersion = c.APIVersion
		}
		deployment := c.Model
		cc.AzureModelMapperFunc = func(string) string { return deployment }
		return cc
	}
	cc := openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		cc.BaseURL = c.BaseURL
	}
	return cc
}

// Summarizer calls a chat completion model with Prompt.
type Summarizer struct {
	client  *openai.Client
	cfg     Config
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// New creates a Summarizer.
func New(cfg Config, metrics *instrumentation.Metrics, logger *slog.Logger) (*Summarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid openai config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		client:  openai.NewClientWithConfig(cfg.clientConfig()),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Summarize returns the model's structured summary of transcript.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (summary string, err error) {
	ctx, done := instrumentation.TrackAPI(ctx, s.metrics, instrumentation.ServiceOpenAI, instrumentation.OperationSummarize)
	defer func() { done(err) }()

	req := openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: Prompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptySummary
	}
	summary = strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", ErrEmptySummary
	}

	s.logger.Debug("transcript summarized",
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens))
	return summary, nil
}
