// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/report-engine/internal/httputil"
	"github.com/pdiddy/report-engine/pkg/types"
)

// anthropicAPIURL is the Anthropic Messages API endpoint. Package-level var
// for test substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	apiKey     string
	maxTokens  int
	maxRetries int
	client     *http.Client
}

// NewAnthropic builds an Anthropic client from the AI configuration.
func NewAnthropic(cfg types.AIConfig) *Anthropic {
	return &Anthropic{
		apiKey:     cfg.APIKey,
		maxTokens:  cfg.MaxTokens,
		maxRetries: cfg.MaxRetries,
		client:     http.DefaultClient,
	}
}

// anthropicRequest is the request body for the Messages API.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

// anthropicMessage is a single message in the conversation. Content is a
// plain string for text-only messages and a block list when images are
// attached.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// anthropicBlock is one content block in a block-list message.
type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

// anthropicSource carries a base64 image payload.
type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// anthropicResponse is the response body from the Messages API.
type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

// anthropicContent is a content block in the API response.
type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends one generation request. System messages become the
// top-level system field; images become base64 source blocks on the final
// user message.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	system, rest := splitSystem(req.Messages)

	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: maxTokens(req, a.maxTokens),
		System:    system,
	}
	for i, m := range rest {
		msg := anthropicMessage{Role: string(m.Role), Content: m.Text}
		if len(req.Images) > 0 && i == lastUserIndex(rest) {
			blocks := []anthropicBlock{{Type: "text", Text: m.Text}}
			for _, img := range req.Images {
				blocks = append(blocks, anthropicBlock{
					Type: "image",
					Source: &anthropicSource{
						Type:      "base64",
						MediaType: img.MediaType,
						Data:      img.Data,
					},
				})
			}
			msg.Content = blocks
		}
		body.Messages = append(body.Messages, msg)
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httputil.DoWithRetry(ctx, a.client, httpReq, a.maxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Anthropic API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Anthropic API returned %d: %s", resp.StatusCode, string(data))
	}

	var aResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return "", fmt.Errorf("decoding Anthropic response: %w", err)
	}

	for _, block := range aResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic API response")
}

// lastUserIndex returns the index of the last user message, or -1.
func lastUserIndex(messages []Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return i
		}
	}
	return -1
}
