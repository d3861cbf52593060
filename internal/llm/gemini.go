// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	genai "google.golang.org/genai"

	"github.com/pdiddy/report-engine/pkg/types"
)

// Gemini calls the Gemini API through the official SDK.
type Gemini struct {
	client    *genai.Client
	maxTokens int
}

// NewGemini builds a Gemini client from the AI configuration.
func NewGemini(ctx context.Context, cfg types.AIConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &Gemini{client: client, maxTokens: cfg.MaxTokens}, nil
}

// Complete sends one generation request. System messages become the system
// instruction; images become inline-data parts on the final user message.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	system, rest := splitSystem(req.Messages)

	var contents []*genai.Content
	for i, m := range rest {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}

		parts := []*genai.Part{{Text: m.Text}}
		if len(req.Images) > 0 && i == lastUserIndex(rest) {
			for _, img := range req.Images {
				data, err := base64.StdEncoding.DecodeString(img.Data)
				if err != nil {
					return "", fmt.Errorf("decoding image payload: %w", err)
				}
				parts = append(parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: img.MediaType, Data: data},
				})
			}
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if limit := maxTokens(req, g.maxTokens); limit > 0 {
		config.MaxOutputTokens = int32(limit)
	}

	res, err := g.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in Gemini API response")
	}
	return text, nil
}
