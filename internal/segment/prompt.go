// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/report-engine/internal/llm"
)

// segmentTask instructs the model to organize the paper into the section
// array the parser expects. The references section is excluded and figure
// and table tags appear once each.
const segmentTask = `## Task:
Given the content of a paper in triple backticks, organize each section into a JSON object format where each element contains:
- ` + "`section`" + `: The name of the section, capturing the main topic or heading of the section.
- ` + "`content`" + `: The full content of the section, presented exactly as in the paper without reduction or summarization.
- ` + "`ref_fig`" + `: A list of figure references in this section. Each reference must follow the format 'figure-<number>' (e.g., 'figure-1' for the first figure).
- ` + "`ref_tb`" + `: A list of table references in this section. Each reference must follow the format 'table-<number>' (e.g., 'table-3' for the third table).

Ensure that each section is represented as a structured JSON object, without reducing or summarizing the content. Do not include the references section.
Do not duplicate the ref_fig and ref_tb to each section. Include them only once.`

// segmentFormat pins the reply shape to a fenced JSON array.
const segmentFormat = "### Response Format:\n```json\n" +
	`[{"section": "str", "content": "str", "ref_fig": ["str"], "ref_tb": ["str"]}]` +
	"\n```"

// segmentContentTmpl wraps the paper text for the final user message.
var segmentContentTmpl = template.Must(template.New("segment-content").Parse(
	"Paper content: ```{{.Text}}```"))

// segmentMessages builds the role-tagged message sequence for one
// segmentation call.
func segmentMessages(text string) ([]llm.Message, error) {
	var buf bytes.Buffer
	if err := segmentContentTmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return nil, err
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Text: "You are a helpful AI assistant."},
		{Role: llm.RoleUser, Text: segmentTask},
		{Role: llm.RoleUser, Text: segmentFormat},
		{Role: llm.RoleUser, Text: buf.String()},
	}, nil
}
