// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/report-engine/internal/arxiv"
	"github.com/pdiddy/report-engine/internal/catalog"
	"github.com/pdiddy/report-engine/internal/container"
	"github.com/pdiddy/report-engine/internal/llm"
	"github.com/pdiddy/report-engine/internal/partition"
	"github.com/pdiddy/report-engine/internal/pipeline"
	"github.com/pdiddy/report-engine/internal/report"
	"github.com/pdiddy/report-engine/internal/translate"
	"github.com/pdiddy/report-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate [identifiers...]",
	Short: "Generate PDF reports for arXiv papers",
	Long: `Generate runs the full pipeline for each identifier: fetch the paper and
its PDF, partition the PDF into text and figure crops, segment the text into
sections, synthesize a keynote (and per-section notes in detailed mode), and
render an illustrated PDF report.

Identifiers are arXiv URLs or IDs; with --by-title they are exact paper
titles instead. One paper's failure does not abort the rest of the batch.
Reports land under <output-dir>/<year>/week_NN/ and each run is recorded
in the catalog with a YAML summary written beside the PDF.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("language", "", "report language: english or traditional-chinese (default english)")
	generateCmd.Flags().String("mode", "", "report mode: simple or detailed (default simple)")
	generateCmd.Flags().String("output-dir", "", "base directory for generated reports (default papers)")
	generateCmd.Flags().Bool("with-references", false, "fetch papers cited by the target and list them in the report")
	generateCmd.Flags().Bool("cover", true, "open the report with a cover figure (--cover=false to disable)")
	generateCmd.Flags().Bool("by-title", false, "treat identifiers as exact paper titles instead of URLs")

	rootCmd.AddCommand(generateCmd)
}

// generator bundles the collaborators and settings for one generate batch.
type generator struct {
	source     *arxiv.Client
	pipe       *pipeline.Pipeline
	translator *translate.Translator
	renderer   report.Renderer
	store      *catalog.Store
	lang       translate.Language
	mode       types.ReportMode
	cover      bool
	withRefs   bool
	byTitle    bool
	outDir     string
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more paper identifiers (arXiv URLs or IDs)")
	}
	ctx := cmd.Context()

	lang, err := translate.ParseLanguage(flagOr(cmd, "language", "report.language", ""))
	if err != nil {
		return err
	}
	mode, err := parseMode(flagOr(cmd, "mode", "report.mode", string(types.ModeSimple)))
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	aiCfg, err := aiConfig()
	if err != nil {
		return err
	}
	client, err := llm.New(ctx, aiCfg)
	if err != nil {
		return err
	}

	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	partitioner, err := partition.NewContainerPartitioner(rt, types.PartitionConfig{
		Image:    viper.GetString("partition.image"),
		Strategy: viper.GetString("partition.strategy"),
	})
	if err != nil {
		return err
	}
	renderer, err := report.NewWeasyprintRenderer(rt, viper.GetString("report.render_image"))
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(stringOr("catalog.catalog_dir", "catalog"), 0)
	if err != nil {
		return err
	}
	defer store.Close()

	source := arxiv.NewClient(arxivConfig(), logger)

	withRefs, _ := cmd.Flags().GetBool("with-references")
	byTitle, _ := cmd.Flags().GetBool("by-title")

	g := &generator{
		source:     source,
		pipe:       pipeline.New(source, partitioner, client, aiCfg.Models, logger),
		translator: translate.NewTranslator(client, aiCfg.Models.Translate),
		renderer:   renderer,
		store:      store,
		lang:       lang,
		mode:       mode,
		cover:      coverSetting(cmd),
		withRefs:   withRefs,
		byTitle:    byTitle,
		outDir:     report.WeeklyDir(flagOr(cmd, "output-dir", "report.output_dir", "papers"), time.Now()),
	}

	failed := g.generateBatch(ctx, args, os.Stdout)
	if failed > 0 {
		return fmt.Errorf("%d paper(s) failed report generation", failed)
	}
	return nil
}

// generateBatch runs every identifier, isolating per-paper failures, and
// returns the failure count.
func (g *generator) generateBatch(ctx context.Context, idents []string, w io.Writer) int {
	generated, failed := 0, 0
	for _, ident := range idents {
		fmt.Fprintf(w, "generating %s\n", ident)
		outPath, err := g.generateOne(ctx, ident)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", ident, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "report  %s\n", outPath)
		generated++
	}
	fmt.Fprintf(w, "\nBatch summary: %d generated, %d failed (total: %d)\n",
		generated, failed, generated+failed)
	return failed
}

// generateOne produces one report end to end and returns the PDF path.
func (g *generator) generateOne(ctx context.Context, ident string) (string, error) {
	opts := pipeline.Options{
		SectionNotes:   g.mode == types.ModeDetailed,
		WithReferences: g.withRefs,
	}

	var (
		res *pipeline.Result
		err error
	)
	if g.byTitle {
		res, err = g.runByTitle(ctx, ident, opts)
	} else {
		res, err = g.pipe.RunURL(ctx, ident, opts)
	}
	if err != nil {
		return "", err
	}
	defer res.Cleanup()

	coverPath := ""
	if g.cover {
		coverPath = res.CoverPath
	}
	asm := report.NewAssembler(report.Params{
		Paper:        res.Paper,
		Keynote:      res.Summary.Keynote,
		SectionNotes: res.Summary.SectionNotes,
		Language:     g.lang,
		CoverPath:    coverPath,
		Translator:   g.translator,
	})

	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	outPath := filepath.Join(g.outDir, report.Filename(res.Paper.Title, g.lang, g.mode))
	if err := asm.WritePDF(ctx, g.renderer, outPath); err != nil {
		return "", err
	}

	if err := g.writeRunSummary(res, outPath); err != nil {
		return "", err
	}

	paperID, err := arxiv.ParseID(res.Paper.URL)
	if err != nil {
		return "", err
	}
	if _, err := g.store.Record(ctx, catalog.Entry{
		PaperID:    paperID,
		Title:      res.Paper.Title,
		URL:        res.Paper.URL,
		Language:   string(g.lang),
		Mode:       string(g.mode),
		Keynote:    res.Summary.Keynote,
		OutputPath: outPath,
	}); err != nil {
		return "", err
	}
	return outPath, nil
}

// runByTitle resolves an exact-title query to a paper, then runs it.
func (g *generator) runByTitle(ctx context.Context, title string, opts pipeline.Options) (*pipeline.Result, error) {
	papers, err := g.source.FetchByQuery(ctx, []string{title}, g.withRefs)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("no paper titled %q", title)
	}
	paper := papers[0]

	id, err := arxiv.ParseID(paper.URL)
	if err != nil {
		return nil, err
	}
	pdfPath, err := g.source.FetchPDF(ctx, id)
	if err != nil {
		return nil, err
	}
	return g.pipe.Run(ctx, paper, pdfPath, opts)
}

// runSummary is the YAML artifact written beside each rendered PDF.
type runSummary struct {
	Title        string              `yaml:"title"`
	URL          string              `yaml:"url"`
	Language     string              `yaml:"language"`
	Mode         string              `yaml:"mode"`
	GeneratedAt  time.Time           `yaml:"generated_at"`
	PDF          string              `yaml:"pdf"`
	Keynote      string              `yaml:"keynote,omitempty"`
	SectionNotes int                 `yaml:"section_notes"`
	SkippedRefs  int                 `yaml:"skipped_references,omitempty"`
	Degradations []types.Degradation `yaml:"degradations,omitempty"`
}

func (g *generator) writeRunSummary(res *pipeline.Result, pdfPath string) error {
	summary := runSummary{
		Title:        res.Paper.Title,
		URL:          res.Paper.URL,
		Language:     string(g.lang),
		Mode:         string(g.mode),
		GeneratedAt:  time.Now().UTC(),
		PDF:          filepath.Base(pdfPath),
		Keynote:      res.Summary.Keynote,
		SectionNotes: len(res.Summary.SectionNotes),
		SkippedRefs:  res.SkippedRefs,
		Degradations: res.Summary.Degradations,
	}
	data, err := yaml.Marshal(&summary)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	yamlPath := strings.TrimSuffix(pdfPath, ".pdf") + ".yaml"
	if err := os.WriteFile(yamlPath, data, 0o644); err != nil {
		return fmt.Errorf("writing run summary: %w", err)
	}
	return nil
}

func parseMode(s string) (types.ReportMode, error) {
	switch types.ReportMode(strings.ToLower(strings.TrimSpace(s))) {
	case types.ModeSimple, "":
		return types.ModeSimple, nil
	case types.ModeDetailed:
		return types.ModeDetailed, nil
	default:
		return "", fmt.Errorf("unknown report mode %q: use simple or detailed", s)
	}
}

// flagOr resolves a string setting: an explicitly set flag wins, then the
// viper key (config file or environment), then the fallback.
func flagOr(cmd *cobra.Command, flag, viperKey, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return stringOr(viperKey, fallback)
}

// coverSetting resolves the cover flag: explicit flag, then config, then on.
func coverSetting(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("cover") {
		v, _ := cmd.Flags().GetBool("cover")
		return v
	}
	if viper.IsSet("report.cover") {
		return viper.GetBool("report.cover")
	}
	return true
}
