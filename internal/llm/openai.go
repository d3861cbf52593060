package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/report-engine/internal/httputil"
	"github.com/pdiddy/report-engine/pkg/types"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI calls an OpenAI-compatible chat completions API. The base URL is
// configurable so self-hosted and proxy deployments work unchanged.
type OpenAI struct {
	apiKey     string
	baseURL    string
	maxTokens  int
	maxRetries int
	client     *http.Client
}

// NewOpenAI builds an OpenAI-compatible client from the AI configuration.
func NewOpenAI(cfg types.AIConfig) *OpenAI {
	base := cfg.BaseURL
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	return &OpenAI{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(base, "/"),
		maxTokens:  cfg.MaxTokens,
		maxRetries: cfg.MaxRetries,
		client:     http.DefaultClient,
	}
}

// openaiRequest is the chat completions request body.
type openaiRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Messages  []openaiMessage `json:"messages"`
}

// openaiMessage is a single chat message. Content is a plain string for
// text-only messages and a part list when images are attached.
type openaiMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// openaiPart is one element of a multi-part message content.
type openaiPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *openaiImage `json:"image_url,omitempty"`
}

// openaiImage carries an image as a data URI.
type openaiImage struct {
	URL string `json:"url"`
}

// openaiResponse is the chat completions response body.
type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Complete sends one generation request. Images become data-URI image parts
// on the final user message.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	body := openaiRequest{
		Model:     req.Model,
		MaxTokens: maxTokens(req, o.maxTokens),
	}
	for i, m := range req.Messages {
		msg := openaiMessage{Role: string(m.Role), Content: m.Text}
		if len(req.Images) > 0 && i == lastUserIndex(req.Messages) {
			parts := []openaiPart{{Type: "text", Text: m.Text}}
			for _, img := range req.Images {
				parts = append(parts, openaiPart{
					Type:     "image_url",
					ImageURL: &openaiImage{URL: fmt.Sprintf("data:%s;base64,%s", img.MediaType, img.Data)},
				})
			}
			msg.Content = parts
		}
		body.Messages = append(body.Messages, msg)
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := o.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := httputil.DoWithRetry(ctx, o.client, httpReq, o.maxRetries)
	if err != nil {
		return "", fmt.Errorf("calling chat completions API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completions API returned %d: %s", resp.StatusCode, string(data))
	}

	var oResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return "", fmt.Errorf("decoding chat completions response: %w", err)
	}

	if len(oResp.Choices) == 0 {
		return "", fmt.Errorf("chat completions API returned no choices")
	}
	return oResp.Choices[0].Message.Content, nil
}
