// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides text generation through role-tagged message requests.
// Three backends implement the same Client interface: the Anthropic Messages
// API, any OpenAI-compatible chat completions server, and Gemini. Callers
// pick the model per request, so cheap calls and vision calls can run on
// different models over one client.
package llm

import (
	"context"
	"fmt"

	"github.com/pdiddy/report-engine/pkg/types"
)

// Role tags a message with its speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged message in a generation request.
type Message struct {
	Role Role
	Text string
}

// Image is a base64-encoded image attachment.
type Image struct {
	// MediaType is the MIME type, e.g. "image/jpeg".
	MediaType string

	// Data is the base64-encoded image payload.
	Data string
}

// Request is a single generation call. Images, when present, are attached
// to the final user message.
type Request struct {
	Model     string
	Messages  []Message
	Images    []Image
	MaxTokens int
}

// Client abstracts the Generative AI API so tests can supply a mock.
type Client interface {
	// Complete sends the request and returns the free-form text reply.
	Complete(ctx context.Context, req Request) (string, error)
}

const defaultMaxTokens = 8192

// New builds a Client for the configured provider. An empty provider
// selects Anthropic.
func New(ctx context.Context, cfg types.AIConfig) (Client, error) {
	switch cfg.Provider {
	case types.ProviderAnthropic, "":
		return NewAnthropic(cfg), nil
	case types.ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case types.ProviderGemini:
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// maxTokens resolves the token cap for one request: the request value wins,
// then the configured value, then the package default.
func maxTokens(req Request, configured int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if configured > 0 {
		return configured
	}
	return defaultMaxTokens
}

// splitSystem separates system messages from the conversation. The Anthropic
// and Gemini APIs take the system text out of band.
func splitSystem(messages []Message) (system string, rest []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Text
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
