// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate localizes report prose. English is the identity
// language: requesting it returns the input untouched without calling the
// model, so English reports cost no translation tokens.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/report-engine/internal/llm"
)

// Language selects the report output language.
type Language string

const (
	English            Language = "English"
	TraditionalChinese Language = "Traditional Chinese"
)

// Code returns the short language tag used in report filenames.
func (l Language) Code() string {
	if l == TraditionalChinese {
		return "TC"
	}
	return "EN"
}

// UnsupportedLanguageError reports a language value outside the supported
// set.
type UnsupportedLanguageError struct {
	Value string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q (supported: %q, %q)", e.Value, English, TraditionalChinese)
}

// ParseLanguage maps a user-supplied language name to a Language. Matching
// ignores case and treats hyphens and underscores as spaces, so
// "traditional-chinese" and "TRADITIONAL_CHINESE" both parse. The short
// codes "en" and "tc" are accepted, and the empty string defaults to
// English.
func ParseLanguage(s string) (Language, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", " ")
	norm = strings.ReplaceAll(norm, "_", " ")
	norm = strings.Join(strings.Fields(norm), " ")

	switch norm {
	case "", "english", "en":
		return English, nil
	case "traditional chinese", "tc":
		return TraditionalChinese, nil
	}
	return "", &UnsupportedLanguageError{Value: s}
}

// Translator renders text and quotes in a target language through a
// generation model.
type Translator struct {
	client llm.Client
	model  string
}

// NewTranslator returns a Translator backed by the given client and model.
func NewTranslator(client llm.Client, model string) *Translator {
	return &Translator{client: client, model: model}
}

// Text translates note prose into lang. The model is instructed to keep
// researcher terminology intact rather than translating it literally.
func (t *Translator) Text(ctx context.Context, text string, lang Language) (string, error) {
	if lang == English {
		return text, nil
	}
	messages, err := textMessages(text, lang)
	if err != nil {
		return "", fmt.Errorf("building translation prompt: %w", err)
	}
	reply, err := t.client.Complete(ctx, llm.Request{Model: t.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("translating text: %w", err)
	}
	return reply, nil
}

// Quote localizes a quote block. The original English quote is preserved
// verbatim with the translation added beneath it, so readers can check the
// translation against the source.
func (t *Translator) Quote(ctx context.Context, text string, lang Language) (string, error) {
	if lang == English {
		return text, nil
	}
	messages, err := quoteMessages(text, lang)
	if err != nil {
		return "", fmt.Errorf("building translation prompt: %w", err)
	}
	reply, err := t.client.Complete(ctx, llm.Request{Model: t.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("translating quote: %w", err)
	}
	return reply, nil
}
