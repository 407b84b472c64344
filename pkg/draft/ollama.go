package draft

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaClient drafts through a local Ollama server.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates a client for the given server URL and model.
func NewOllamaClient(serverURL, model string) (*OllamaClient, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &OllamaClient{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}, nil
}

// Complete sends one system+user exchange and returns the assistant text.
func (c *OllamaClient) Complete(ctx context.Context, system, user string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 120*time.Second)
		defer cancel()
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: &streamFalse,
	}

	var content string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	return content, nil
}
