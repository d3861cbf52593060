// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ExtractedSection is one titled section as returned by the segmentation
// call. The JSON field names match the response format the generation
// prompt asks for; Content is the verbatim section text, not a summary.
type ExtractedSection struct {
	// Section is the section title or heading.
	Section string `json:"section" yaml:"section"`

	// Content is the full section text. It may be empty; empty sections
	// are dropped when sections are resolved against the image catalog.
	Content string `json:"content" yaml:"content"`

	// RefFigures lists figure reference tags in "figure-<n>" form,
	// in the order they appear in the section.
	RefFigures []string `json:"ref_fig" yaml:"ref_fig"`

	// RefTables lists table reference tags in "table-<n>" form.
	RefTables []string `json:"ref_tb" yaml:"ref_tb"`
}

// ImageAsset is one image or table crop extracted by the partitioning
// collaborator. The pipeline reads these files but never mutates them.
type ImageAsset struct {
	// Path is the on-disk location of the extracted image.
	Path string `json:"path" yaml:"path"`

	// Filename is the path stem (base name without extension).
	Filename string `json:"filename" yaml:"filename"`
}

// ResolvedSectionInfo is an ExtractedSection with its figure and table
// references resolved to concrete image files.
type ResolvedSectionInfo struct {
	// Title is the section title.
	Title string `json:"title" yaml:"title"`

	// Content is the verbatim section text.
	Content string `json:"content" yaml:"content"`

	// ImagePaths lists resolved figure image paths in reference order.
	ImagePaths []string `json:"image_paths" yaml:"image_paths"`

	// TablePaths lists resolved table image paths in reference order.
	TablePaths []string `json:"table_paths" yaml:"table_paths"`

	// Encodings holds base64 payloads for every resolved image, figures
	// first then tables, aligned with the combined reference order.
	Encodings []string `json:"-" yaml:"-"`
}

// SectionNote is the synthesized note for one section.
type SectionNote struct {
	// Header is the section title.
	Header string `json:"header" yaml:"header"`

	// SummaryContent is the bullet-formatted merged summary.
	SummaryContent string `json:"summary_content" yaml:"summary_content"`

	// Quotes holds the extracted quotes block, or the sentinel value
	// when the quote policy yields none.
	Quotes string `json:"quotes" yaml:"quotes"`

	// ImagePaths lists the section's figure image paths.
	ImagePaths []string `json:"image_paths" yaml:"image_paths"`

	// TablePaths lists the section's table image paths.
	TablePaths []string `json:"table_paths" yaml:"table_paths"`
}

// Degradation records a best-effort stage that failed and substituted an
// empty result. It lets callers tell a legitimately empty output from a
// degraded one.
type Degradation struct {
	// Stage names the stage that degraded (e.g. "keynote", "section_notes").
	Stage string `json:"stage" yaml:"stage"`

	// Message is the recorded warning.
	Message string `json:"message" yaml:"message"`
}

// SummaryResult is the output of summarizing one paper.
type SummaryResult struct {
	// Keynote is the paper-level structured note. Empty when the keynote
	// stage degraded.
	Keynote string `json:"keynote" yaml:"keynote"`

	// SectionNotes holds one note per non-empty section, in section order.
	// Empty when section notes were not requested or the batch degraded.
	SectionNotes []SectionNote `json:"section_notes" yaml:"section_notes"`

	// Degradations records every best-effort stage that failed during
	// this run.
	Degradations []Degradation `json:"degradations,omitempty" yaml:"degradations,omitempty"`
}

// Degraded reports whether any stage degraded during the run.
func (r SummaryResult) Degraded() bool {
	return len(r.Degradations) > 0
}
