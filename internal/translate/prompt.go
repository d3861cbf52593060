// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/report-engine/internal/llm"
)

const translateSystem = "You are an AI research assistant."

var textTmpl = template.Must(template.New("translate-text").Parse(`##Task
Translate the provided note into the specified language, {{.Language}}. Follow these rules for translation:
- Preserve the original meaning as closely as possible.
- Use terminology commonly used by data scientists and AI researchers.
- Avoid over-translation; keep terms intact where applicable.

Here is the note:
{{.Text}}`))

var quoteTmpl = template.Must(template.New("translate-quote").Parse(`##Task
Translate the provided quote into the specified language, {{.Language}}. Follow these rules for translation:
- Do NOT translate the quote itself.
- Add a translation of the quote below the original quote.
- Preserve the original meaning as closely as possible.
- Use terminology commonly used by data scientists and AI researchers.
- Avoid over-translation; keep terms intact where applicable.

## Response Format
> 'Original quote text here'

Translated quote text here. (Do not include the quote marks.)

Here is the quote:
{{.Text}}`))

func renderPrompt(tmpl *template.Template, text string, lang Language) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Language Language
		Text     string
	}{Language: lang, Text: text}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func textMessages(text string, lang Language) ([]llm.Message, error) {
	prompt, err := renderPrompt(textTmpl, text, lang)
	if err != nil {
		return nil, err
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Text: translateSystem},
		{Role: llm.RoleUser, Text: prompt},
	}, nil
}

func quoteMessages(text string, lang Language) ([]llm.Message, error) {
	prompt, err := renderPrompt(quoteTmpl, text, lang)
	if err != nil {
		return nil, err
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Text: translateSystem},
		{Role: llm.RoleUser, Text: prompt},
	}, nil
}
