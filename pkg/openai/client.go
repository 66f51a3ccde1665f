// Package openai talks to an OpenAI-compatible chat completions API for conversations and
// chat summaries.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	oai "github.com/sashabaranov/go-openai"

	"github.com/dskvich/whitecat-bot/pkg/history"
)

const (
	DefaultModel        = "gpt-4o-mini"
	DefaultSystemPrompt = "be nice and gentle."

	chatMaxTokens      = 4096
	summaryMaxTokens   = 2048
	summaryTemperature = 0.3
	requestTimeout     = 2 * time.Minute

	summarySystemPrompt = "You summarize group chat conversations. Be concise, group the discussion by topic " +
		"and mention who said what when it matters. Answer in the language most of the conversation is in."
)

var ErrEmptyResponse = errors.New("no completion response from API")

type Option func(*Client)

// WithBaseURL switches to any OpenAI-compatible endpoint, e.g. http://localhost:11434/v1.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithSummaryModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.summaryModel = model
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

type Client struct {
	api          *oai.Client
	hc           *http.Client
	baseURL      string
	model        string
	summaryModel string
}

func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}

	c := &Client{
		hc:    &http.Client{Timeout: requestTimeout},
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.summaryModel == "" {
		c.summaryModel = c.model
	}

	cfg := oai.DefaultConfig(token)
	if c.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(c.baseURL, "/")
	}
	cfg.HTTPClient = c.hc
	c.api = oai.NewClientWithConfig(cfg)

	return c, nil
}

func (c *Client) Model() string { return c.model }

// Chat answers the last user turn of the conversation. An empty system prompt falls back to
// DefaultSystemPrompt.
func (c *Client) Chat(ctx context.Context, system string, turns []history.Turn) (string, error) {
	if system == "" {
		system = DefaultSystemPrompt
	}

	messages := make([]oai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, oai.ChatCompletionMessage{Role: oai.ChatMessageRoleSystem, Content: system})
	for _, t := range turns {
		messages = append(messages, oai.ChatCompletionMessage{Role: role(t.Role), Content: t.Content})
	}

	return c.complete(ctx, oai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: chatMaxTokens,
	})
}

// Summarize turns a prepared transcript into a short summary.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	return c.complete(ctx, oai.ChatCompletionRequest{
		Model: c.summaryModel,
		Messages: []oai.ChatCompletionMessage{
			{Role: oai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: oai.ChatMessageRoleUser, Content: transcript},
		},
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	})
}

func (c *Client) complete(ctx context.Context, req oai.ChatCompletionRequest) (string, error) {
	start := time.Now()

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}

	slog.DebugContext(ctx, "Chat completion finished",
		"model", req.Model,
		"messages", len(req.Messages),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"took", time.Since(start),
	)

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func role(r history.Role) string {
	if r == history.RoleModel {
		return oai.ChatMessageRoleAssistant
	}
	return oai.ChatMessageRoleUser
}
