package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "report-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ArxivConfig holds settings for the arXiv paper source.
type ArxivConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestInterval is the minimum spacing between arXiv API calls
	// (default 3s, per the arXiv usage policy).
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`

	// MaxResults caps the candidates considered per title query (default 1);
	// only exact title matches are kept regardless.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PapersDir is the directory for downloaded PDFs in fetch-only mode.
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`
}

// PartitionConfig holds settings for the document partitioning stage.
type PartitionConfig struct {
	// Image is the container image that runs the partitioner.
	Image string `json:"image" yaml:"image"`

	// Strategy selects the partitioning strategy (default "hi_res").
	Strategy string `json:"strategy" yaml:"strategy"`
}

// Provider identifies a generation backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// ModelConfig names one model identifier per generation call type, so that
// cheap calls and vision calls can use different models.
type ModelConfig struct {
	// Segment is the model used for section segmentation.
	Segment string `json:"segment" yaml:"segment"`

	// Summary is the model used for per-section summaries.
	Summary string `json:"summary" yaml:"summary"`

	// Quotes is the model used for quote extraction.
	Quotes string `json:"quotes" yaml:"quotes"`

	// Vision is the model used for image commentary. It must accept
	// image inputs.
	Vision string `json:"vision" yaml:"vision"`

	// Organize is the model used to merge summaries into bullet form.
	Organize string `json:"organize" yaml:"organize"`

	// Keynote is the model used for the paper-level keynote.
	Keynote string `json:"keynote" yaml:"keynote"`

	// Translate is the model used for translation calls.
	Translate string `json:"translate" yaml:"translate"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: anthropic, openai, or gemini.
	Provider Provider `json:"provider" yaml:"provider"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens caps the response length of a single generation call
	// (default 8192).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retry attempts for failed API calls (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Models selects the model identifier per call type.
	Models ModelConfig `json:"models" yaml:"models"`
}

// ReportMode selects how much of the analysis the report carries.
type ReportMode string

const (
	// ModeSimple includes only the keynote.
	ModeSimple ReportMode = "simple"

	// ModeDetailed includes the keynote and every section note.
	ModeDetailed ReportMode = "detailed"
)

// ReportConfig holds settings for report assembly and rendering.
type ReportConfig struct {
	// OutputDir is the base directory for generated reports; runs are
	// placed under <output_dir>/<year>/week_NN/.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Language is the report language ("english" or "traditional-chinese").
	Language string `json:"language" yaml:"language"`

	// Mode selects simple (keynote only) or detailed (with section notes)
	// reports.
	Mode ReportMode `json:"mode" yaml:"mode"`

	// RenderImage is the container image that converts HTML to PDF.
	RenderImage string `json:"render_image" yaml:"render_image"`

	// Cover controls whether the report opens with a cover figure.
	Cover bool `json:"cover" yaml:"cover"`
}

// CatalogConfig holds settings for the report catalog.
type CatalogConfig struct {
	// CatalogDir is the directory holding the reports database.
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Arxiv     ArxivConfig     `json:"arxiv" yaml:"arxiv"`
	Partition PartitionConfig `json:"partition" yaml:"partition"`
	AI        AIConfig        `json:"ai" yaml:"ai"`
	Report    ReportConfig    `json:"report" yaml:"report"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
}
