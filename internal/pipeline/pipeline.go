// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one paper's run: PDF partitioning,
// section segmentation, asset resolution, and note synthesis. Runs are
// strictly sequential and share no mutable state, so concurrent runs
// only require separate Pipeline calls.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/report-engine/internal/arxiv"
	"github.com/pdiddy/report-engine/internal/assets"
	"github.com/pdiddy/report-engine/internal/llm"
	"github.com/pdiddy/report-engine/internal/partition"
	"github.com/pdiddy/report-engine/internal/segment"
	"github.com/pdiddy/report-engine/internal/summarize"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Source fetches papers and their PDFs. *arxiv.Client satisfies it.
type Source interface {
	FetchOne(ctx context.Context, url string, withRefs bool) (*types.Paper, error)
	FetchPDF(ctx context.Context, id string) (string, error)
}

// Options selects per-run behavior.
type Options struct {
	// SectionNotes requests per-section note synthesis (detailed mode).
	SectionNotes bool

	// WithReferences fetches papers cited by the target when resolving
	// an identifier through RunURL.
	WithReferences bool
}

// Result is the outcome of one run. Image paths in the summary and the
// cover path point into ScratchDir, which stays on disk until Cleanup
// is called, so callers can finish report assembly first.
type Result struct {
	Paper       *types.Paper
	Summary     types.SummaryResult
	CoverPath   string
	SkippedRefs int
	ScratchDir  string
}

// Cleanup removes the run's scratch directory.
func (r *Result) Cleanup() error {
	return os.RemoveAll(r.ScratchDir)
}

// Pipeline runs papers through the full analysis. All collaborators are
// injected; the zero value is not usable.
type Pipeline struct {
	source      Source
	partitioner partition.Partitioner
	client      llm.Client
	models      types.ModelConfig
	logger      *zap.Logger
}

// New creates a Pipeline. A nil logger disables logging.
func New(source Source, partitioner partition.Partitioner, client llm.Client, models types.ModelConfig, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:      source,
		partitioner: partitioner,
		client:      client,
		models:      models,
		logger:      logger,
	}
}

// RunURL resolves an identifier through the source and runs the fetched
// paper.
func (p *Pipeline) RunURL(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	paper, err := p.source.FetchOne(ctx, rawURL, opts.WithReferences)
	if err != nil {
		return nil, err
	}
	id, err := arxiv.ParseID(paper.URL)
	if err != nil {
		return nil, err
	}
	pdfPath, err := p.source.FetchPDF(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, paper, pdfPath, opts)
}

// Run analyzes one paper whose PDF is already on disk. The PDF is copied
// into a fresh scratch directory, partitioned into elements and image
// crops, segmented into sections, and summarized. The keynote and
// section-note stages degrade to empty output on failure; every other
// stage failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, paper *types.Paper, pdfPath string, opts Options) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.With(
		zap.String("run_id", runID),
		zap.String("paper", paper.Title))

	scratch, err := os.MkdirTemp("", "report-engine-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	fail := func(err error) (*Result, error) {
		os.RemoveAll(scratch)
		return nil, err
	}

	pdfName := filepath.Base(pdfPath)
	if err := copyFile(pdfPath, filepath.Join(scratch, pdfName)); err != nil {
		return fail(fmt.Errorf("staging PDF: %w", err))
	}

	elements, err := p.partitioner.Partition(scratch, pdfName)
	if err != nil {
		return fail(fmt.Errorf("partitioning %s: %w", pdfName, err))
	}
	images := partition.Assets(elements)
	log.Info("partitioned paper",
		zap.Int("elements", len(elements)),
		zap.Int("images", len(images)))

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	sections, err := segment.ExtractSections(ctx, p.client, p.models.Segment, paper.Text)
	if err != nil {
		return fail(err)
	}

	imageDir := scratch
	if len(images) > 0 {
		imageDir = filepath.Dir(images[0].Path)
	}
	infos, skipped, err := assets.BuildSectionInfos(sections, assets.BuildIndex(images), imageDir)
	if err != nil {
		return fail(err)
	}
	if skipped > 0 {
		log.Warn("references with no matching image asset",
			zap.Int("skipped", skipped))
	}

	result := &Result{
		Paper:       paper,
		CoverPath:   assets.CoverImage(images),
		SkippedRefs: skipped,
		ScratchDir:  scratch,
	}

	summarizer := summarize.New(p.client, p.models, log)

	keynote, deg := summarizer.Keynote(ctx, paper.Text)
	result.Summary.Keynote = keynote
	if deg != nil {
		result.Summary.Degradations = append(result.Summary.Degradations, *deg)
	}

	if opts.SectionNotes {
		notes, deg := summarizer.SectionNotes(ctx, infos)
		result.Summary.SectionNotes = notes
		if deg != nil {
			result.Summary.Degradations = append(result.Summary.Degradations, *deg)
		}
	}

	log.Info("run complete",
		zap.Int("sections", len(infos)),
		zap.Int("notes", len(result.Summary.SectionNotes)),
		zap.Bool("degraded", result.Summary.Degraded()))
	return result, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
