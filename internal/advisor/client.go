// Package advisor asks a language model for a routing suggestion when the
// lexicon cannot place a request. It is strictly a fallback; requests the
// router handles never reach it.
package advisor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

type Client struct {
	client *genai.Client
	model  string
	debug  bool
}

// NewClient builds the Gemini-backed advisor from an API key (Google AI
// Studio). An empty key is an error; callers should skip the advisor
// entirely when it is not configured.
func NewClient(ctx context.Context, apiKey, model string, debug bool) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("advisor requires an API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{client: client, model: model, debug: debug}, nil
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Suggest asks the model to place an unroutable request. services and
// operations carry the known vocabulary so the answer stays inside it.
func (c *Client) Suggest(ctx context.Context, text string, services, operations []string) (string, error) {
	prompt := buildPrompt(text, services, operations)
	if c.debug {
		fmt.Fprintf(os.Stderr, "[advisor] model %s, prompt %d chars\n", c.model, len(prompt))
	}

	content := genai.NewContentFromText(prompt, genai.RoleUser)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{content}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate suggestion: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no suggestion returned")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			out.WriteString(part.Text)
		}
	}
	suggestion := strings.TrimSpace(out.String())
	if suggestion == "" {
		return "", fmt.Errorf("empty suggestion returned")
	}
	return suggestion, nil
}

func buildPrompt(text string, services, operations []string) string {
	var b strings.Builder
	b.WriteString("A media-management request could not be routed automatically.\n\n")
	fmt.Fprintf(&b, "Request: %q\n\n", text)
	fmt.Fprintf(&b, "Known services: %s\n", strings.Join(services, ", "))
	fmt.Fprintf(&b, "Known operations: %s\n\n", strings.Join(operations, ", "))
	b.WriteString("In at most three sentences, either name the service and operation ")
	b.WriteString("that fit best, or ask one clarifying question. ")
	b.WriteString("Never invent a service outside the known list.")
	return b.String()
}
