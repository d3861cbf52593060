// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report assembles the final paper report: a Markdown document
// built from the title, keynote, section notes, and references, converted
// to styled HTML and rendered to PDF by a container-backed renderer.
package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/pdiddy/report-engine/internal/assets"
	"github.com/pdiddy/report-engine/internal/translate"
	"github.com/pdiddy/report-engine/pkg/types"
)

// noQuotes is the sentinel the quote stage emits for sections without
// quotes; the assembler drops the quotes block when it sees it.
const noQuotes = "NO_QUOTES"

// Translator localizes report prose. The identity translation for English
// is the implementation's concern, not the assembler's.
type Translator interface {
	Text(ctx context.Context, text string, lang translate.Language) (string, error)
	Quote(ctx context.Context, text string, lang translate.Language) (string, error)
}

// Params carries the inputs for one report.
type Params struct {
	Paper        *types.Paper
	Keynote      string
	SectionNotes []types.SectionNote
	Language     translate.Language
	CoverPath    string
	Translator   Translator
}

// Assembler builds the Markdown document for one report run. Each embedded
// image is tracked so a path referenced from several places appears in the
// document exactly once; the tracking set belongs to one Assembler and is
// not safe to share across concurrent runs.
type Assembler struct {
	paper      *types.Paper
	keynote    string
	notes      []types.SectionNote
	language   translate.Language
	coverPath  string
	translator Translator
	embedded   map[string]bool
}

// NewAssembler creates an Assembler for a single report.
func NewAssembler(p Params) *Assembler {
	return &Assembler{
		paper:      p.Paper,
		keynote:    p.Keynote,
		notes:      p.SectionNotes,
		language:   p.Language,
		coverPath:  p.CoverPath,
		translator: p.Translator,
		embedded:   make(map[string]bool),
	}
}

// Markdown assembles the full report document: title line, key highlights
// (cover image and keynote), comprehensive analysis (one subsection per
// note), and the reference list. Translation failures and unreadable image
// files are fatal; a report with silently missing pieces is worse than no
// report.
func (a *Assembler) Markdown(ctx context.Context) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s ([arxiv](%s))\n\n", a.paper.Title, a.paper.URL)

	b.WriteString("## Key Highlights\n")
	if a.coverPath != "" {
		cover, err := a.imageContent([]string{a.coverPath})
		if err != nil {
			return "", fmt.Errorf("embedding cover image: %w", err)
		}
		b.WriteString(cover)
	}
	b.WriteString("\n")

	keynote, err := a.translator.Text(ctx, a.keynote, a.language)
	if err != nil {
		return "", fmt.Errorf("translating keynote: %w", err)
	}
	b.WriteString(keynote)
	b.WriteString("\n\n")

	b.WriteString("## Comprehensive Analysis\n")
	analysis := "No section notes."
	if len(a.notes) > 0 {
		analysis, err = a.analysisContent(ctx)
		if err != nil {
			return "", err
		}
	}
	b.WriteString(analysis)
	b.WriteString("\n\n")

	b.WriteString("## References\n")
	b.WriteString(a.referenceContent())
	b.WriteString("\n\n")

	return b.String(), nil
}

func (a *Assembler) analysisContent(ctx context.Context) (string, error) {
	var b strings.Builder
	for _, note := range a.notes {
		section, err := a.sectionContent(ctx, note)
		if err != nil {
			return "", fmt.Errorf("section %q: %w", note.Header, err)
		}
		b.WriteString(section)
	}
	return b.String(), nil
}

// sectionContent renders one note: subheading, figures, translated summary,
// the quotes block unless the sentinel is present, then tables.
func (a *Assembler) sectionContent(ctx context.Context, note types.SectionNote) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", note.Header)

	figures, err := a.imageContent(note.ImagePaths)
	if err != nil {
		return "", err
	}
	b.WriteString(figures)

	summary, err := a.translator.Text(ctx, note.SummaryContent, a.language)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "%s\n\n", summary)

	if note.Quotes != noQuotes {
		quotes, err := a.translator.Quote(ctx, note.Quotes, a.language)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s\n\n", quotes)
	}

	tables, err := a.imageContent(note.TablePaths)
	if err != nil {
		return "", err
	}
	b.WriteString(tables)

	return b.String(), nil
}

func (a *Assembler) referenceContent() string {
	if len(a.paper.References) == 0 {
		return "No references found."
	}
	var b strings.Builder
	for _, ref := range a.paper.References {
		fmt.Fprintf(&b, "- [%s](%s)\n", ref.Title, ref.URL)
	}
	return b.String()
}

// imageContent embeds each path as an inline base64 image, skipping paths
// already embedded earlier in this report.
func (a *Assembler) imageContent(paths []string) (string, error) {
	var b strings.Builder
	for _, path := range paths {
		if a.embedded[path] {
			continue
		}
		encoded, err := assets.EncodeImage(path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "<img src=\"data:image/jpeg;base64,%s\" style=\"max-width:100%%; height:auto;\" alt=\"Image\"/>\n\n", encoded)
		a.embedded[path] = true
	}
	return b.String(), nil
}

// reportCSS styles quote blocks in the rendered document.
const reportCSS = `
blockquote {
    font-style: italic;
    color: #555555;
    padding: 10px 20px;
    margin: 20px 0;
    border-left: 4px solid #cccccc;
    background-color: #f9f9f9;
}
`

// mdConverter allows raw HTML through because the assembled Markdown embeds
// images as <img> tags.
var mdConverter = goldmark.New(
	goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
)

// HTML converts the assembled Markdown into a self-contained HTML document
// with the report stylesheet inlined.
func HTML(markdown string) (string, error) {
	var body bytes.Buffer
	if err := mdConverter.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("converting report markdown: %w", err)
	}

	var b strings.Builder
	b.WriteString("<html>\n<head>\n<style>")
	b.WriteString(reportCSS)
	b.WriteString("</style>\n</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// WritePDF assembles the report and renders it to outputPath.
func (a *Assembler) WritePDF(ctx context.Context, r Renderer, outputPath string) error {
	markdown, err := a.Markdown(ctx)
	if err != nil {
		return err
	}
	html, err := HTML(markdown)
	if err != nil {
		return err
	}
	return r.Render(html, outputPath)
}
