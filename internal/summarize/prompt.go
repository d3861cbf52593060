package summarize

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/report-engine/internal/llm"
)

const assistantSystem = "You are an AI research assistant."

// Keep verbatim, typo included; the prompt set was tuned against it.
const summarySystem = "You are a AI Research."

const summaryIntro = "I am reading a machine learning and deep learning paper and will provide you with a section of its content. " +
	"Provide a brief summary of the section."

var summaryFormatTmpl = template.Must(template.New("summary-format").Parse(
	"## Response Format\n## {{.Title}}\n```{{.Text}}```"))

// titledContentTmpl carries the section payload for both the summary and
// the quote prompts.
var titledContentTmpl = template.Must(template.New("titled-content").Parse(
	"## Title: {{.Title}}\nContent:\n```\n{{.Text}}\n```"))

const quotesTask = "## Task\n" +
	"I am reading a machine learning and deep learning paper and will provide you with a section of its content. " +
	"Extract only the essential quotes that capture the key information from this section, as follows:\n" +
	"- Include quotes that highlight the primary problem or question addressed.\n" +
	"- Add quotes describing any proposed methods or solutions, along with theoretical foundations or significant insights.\n" +
	"- Provide quotes on any major findings or important points emphasized by the author.\n" +
	"## Response Format\n" +
	"> 'Quote text here'\n\n" +
	"## Requirements\n" +
	"- Limit to ONLY three critical quotes.\n" +
	"- Quotes should be very critical or insightful or innovative.\n" +
	"- If the title is related to Abstract, References or Conclusion, return 'NO_QUOTES'.\n" +
	"- If the entire section is unimportant, return 'NO_QUOTES'"

const imageIntro = "Given the image of an paper, explain the key insights and findings from the image."

const organizeTask = "## Task\n" +
	"Organize the provided section summary, and image summaries into a structured format with bullet points:\n\n" +
	"- Display each line of the summary as a bullet point.\n\n" +
	"- Include the image summary as a bullet point if it not empty.\n\n"

const keynoteTask = "I am reading deep learning and AI research papers and need structured notes based on specific sections of the content. " +
	"For each section provided, focus on the following points:\n\n" +
	"### Problem\n" +
	"- What problem does this paper aim to solve?\n" +
	"- What are the existing methods, and what limitations do they have?\n\n" +
	"### Solution\n" +
	"- What solution does the paper propose?\n" +
	"- What inspired this idea? Was it influenced by other papers?\n" +
	"- What theoretical basis supports this method?\n\n" +
	"### Experiment\n" +
	"- How well does the experiment perform?\n" +
	"- What limitations or assumptions are associated with this method?\n\n" +
	"### Innovation\n" +
	"- What important or novel discoveries does this paper make?\n\n" +
	"### Comments / Critique\n" +
	"- Are there any limitations in this paper?\n" +
	"- Does the paper substantiate its claims effectively?\n\n" +
	"Do NOT include any content outside this format.\n"

type titledText struct {
	Title string
	Text  string
}

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func summaryMessages(title, content string) ([]llm.Message, error) {
	format, err := renderPrompt(summaryFormatTmpl, titledText{Title: title, Text: content})
	if err != nil {
		return nil, err
	}
	payload, err := renderPrompt(titledContentTmpl, titledText{Title: title, Text: content})
	if err != nil {
		return nil, err
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Text: summarySystem},
		{Role: llm.RoleUser, Text: summaryIntro},
		{Role: llm.RoleUser, Text: format},
		{Role: llm.RoleUser, Text: payload},
	}, nil
}

func quoteMessages(title, content string) ([]llm.Message, error) {
	payload, err := renderPrompt(titledContentTmpl, titledText{Title: title, Text: content})
	if err != nil {
		return nil, err
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Text: assistantSystem},
		{Role: llm.RoleUser, Text: quotesTask},
		{Role: llm.RoleUser, Text: payload},
	}, nil
}

func imageMessages(sectionSummary string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleUser, Text: imageIntro},
		{Role: llm.RoleUser, Text: sectionSummary},
	}
}

func organizeMessages(summary string, imageSummaries []string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Text: assistantSystem},
		{Role: llm.RoleUser, Text: organizeTask},
		{Role: llm.RoleUser, Text: "Section Summary: ```" + summary + "```"},
		{Role: llm.RoleUser, Text: "Image Summary: ```" + strings.Join(imageSummaries, "\n") + "```"},
	}
}

func keynoteMessages(text string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Text: assistantSystem},
		{Role: llm.RoleUser, Text: keynoteTask},
		{Role: llm.RoleUser, Text: "Section Content: ```" + text + "```"},
	}
}
