// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize synthesizes notes from segmented paper sections: a
// narrative summary per section, commentary on each resolved image, up to
// three critical quotes, and a paper-level keynote. Every call goes through
// a generation model; the per-call models are configurable so cheap models
// can handle bulk work and stronger ones the analysis.
//
// Note synthesis and the keynote are best-effort stages. Failures degrade
// to empty output with a recorded types.Degradation instead of aborting the
// run, so one flaky generation call cannot sink a whole report.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/internal/llm"
	"github.com/pdiddy/report-engine/pkg/types"
)

// NoQuotes is the sentinel the quote stage yields for sections that must
// not contribute quotes. The report assembler omits the quotes block when
// it sees this value.
const NoQuotes = "NO_QUOTES"

// Stage names recorded in types.Degradation entries.
const (
	StageKeynote      = "keynote"
	StageSectionNotes = "section_notes"
)

// quoteBannedTitles lists section titles that never yield quotes, matched
// case-insensitively as substrings so numbered headings ("5. Conclusion")
// and plurals ("Conclusions") are covered.
var quoteBannedTitles = []string{"abstract", "references", "conclusion"}

// Summarizer runs the note-synthesis calls for one pipeline.
type Summarizer struct {
	client llm.Client
	models types.ModelConfig
	logger *zap.Logger
}

// New returns a Summarizer using the given client and per-call models. A
// nil logger disables logging.
func New(client llm.Client, models types.ModelConfig, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{client: client, models: models, logger: logger}
}

// SummarizeSection produces a brief narrative summary of one section.
func (s *Summarizer) SummarizeSection(ctx context.Context, title, content string) (string, error) {
	messages, err := summaryMessages(title, content)
	if err != nil {
		return "", fmt.Errorf("building summary prompt: %w", err)
	}
	reply, err := s.client.Complete(ctx, llm.Request{Model: s.models.Summary, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("summarizing section %q: %w", title, err)
	}
	return reply, nil
}

// DescribeImage explains one resolved image, conditioned on the section
// summary so the commentary stays grounded in the surrounding text.
func (s *Summarizer) DescribeImage(ctx context.Context, encoding, sectionSummary string) (string, error) {
	reply, err := s.client.Complete(ctx, llm.Request{
		Model:    s.models.Vision,
		Messages: imageMessages(sectionSummary),
		Images:   []llm.Image{{MediaType: "image/jpeg", Data: encoding}},
	})
	if err != nil {
		return "", fmt.Errorf("describing image: %w", err)
	}
	return reply, nil
}

// OrganizeSummary merges a section summary and its image commentaries into
// one bullet-formatted note.
func (s *Summarizer) OrganizeSummary(ctx context.Context, summary string, imageSummaries []string) (string, error) {
	reply, err := s.client.Complete(ctx, llm.Request{
		Model:    s.models.Organize,
		Messages: organizeMessages(summary, imageSummaries),
	})
	if err != nil {
		return "", fmt.Errorf("organizing summary: %w", err)
	}
	return reply, nil
}

// ExtractQuotes pulls up to three critical quotes from a section. Sections
// titled Abstract, References, or Conclusion yield NoQuotes without a model
// call; the model additionally returns NoQuotes for sections it judges
// unimportant.
func (s *Summarizer) ExtractQuotes(ctx context.Context, title, content string) (string, error) {
	if titleBansQuotes(title) {
		return NoQuotes, nil
	}
	messages, err := quoteMessages(title, content)
	if err != nil {
		return "", fmt.Errorf("building quote prompt: %w", err)
	}
	reply, err := s.client.Complete(ctx, llm.Request{Model: s.models.Quotes, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("extracting quotes for section %q: %w", title, err)
	}
	return reply, nil
}

func titleBansQuotes(title string) bool {
	lower := strings.ToLower(title)
	for _, banned := range quoteBannedTitles {
		if strings.Contains(lower, banned) {
			return true
		}
	}
	return false
}

// sectionNote synthesizes the note for one section: summary, image
// commentaries in reference order, merged bullets, then quotes.
func (s *Summarizer) sectionNote(ctx context.Context, info types.ResolvedSectionInfo) (types.SectionNote, error) {
	summary, err := s.SummarizeSection(ctx, info.Title, info.Content)
	if err != nil {
		return types.SectionNote{}, err
	}

	imageSummaries := make([]string, 0, len(info.Encodings))
	for i, encoding := range info.Encodings {
		commentary, err := s.DescribeImage(ctx, encoding, summary)
		if err != nil {
			return types.SectionNote{}, fmt.Errorf("image %d of section %q: %w", i+1, info.Title, err)
		}
		imageSummaries = append(imageSummaries, commentary)
	}

	organized, err := s.OrganizeSummary(ctx, summary, imageSummaries)
	if err != nil {
		return types.SectionNote{}, fmt.Errorf("section %q: %w", info.Title, err)
	}

	quotes, err := s.ExtractQuotes(ctx, info.Title, info.Content)
	if err != nil {
		return types.SectionNote{}, err
	}

	return types.SectionNote{
		Header:         info.Title,
		SummaryContent: organized,
		Quotes:         quotes,
		ImagePaths:     info.ImagePaths,
		TablePaths:     info.TablePaths,
	}, nil
}

// SectionNotes synthesizes one note per resolved section, sequentially and
// in order. Any failure degrades the whole batch to an empty list with a
// recorded degradation; the error never propagates.
func (s *Summarizer) SectionNotes(ctx context.Context, infos []types.ResolvedSectionInfo) ([]types.SectionNote, *types.Degradation) {
	notes := make([]types.SectionNote, 0, len(infos))
	for _, info := range infos {
		note, err := s.sectionNote(ctx, info)
		if err != nil {
			s.logger.Warn("section note synthesis failed, dropping section notes",
				zap.String("section", info.Title), zap.Error(err))
			return nil, &types.Degradation{Stage: StageSectionNotes, Message: err.Error()}
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// Keynote produces the paper-level structured note from the full text. On
// failure it degrades to an empty string with a recorded degradation.
func (s *Summarizer) Keynote(ctx context.Context, text string) (string, *types.Degradation) {
	reply, err := s.client.Complete(ctx, llm.Request{
		Model:    s.models.Keynote,
		Messages: keynoteMessages(text),
	})
	if err != nil {
		s.logger.Warn("keynote extraction failed", zap.Error(err))
		return "", &types.Degradation{Stage: StageKeynote, Message: err.Error()}
	}
	return reply, nil
}
