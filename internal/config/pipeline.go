package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/docket/pkg/formatting"
)

const (
	EnvPipelineSourceDir     = "DOCKET_PIPELINE_SOURCE_DIR"
	EnvPipelineOutputDir     = "DOCKET_PIPELINE_OUTPUT_DIR"
	EnvPipelineMaxSourceSize = "DOCKET_PIPELINE_MAX_SOURCE_SIZE"
	EnvPipelineExclude       = "DOCKET_PIPELINE_EXCLUDE"

	EnvExtractMethod        = "DOCKET_EXTRACT_METHOD"
	EnvExtractDoclingCmd    = "DOCKET_EXTRACT_DOCLING_COMMAND"
	EnvExtractSkipPages     = "DOCKET_EXTRACT_SKIP_PAGES"
	EnvExtractDPI           = "DOCKET_EXTRACT_DPI"
	EnvExtractRenderWorkers = "DOCKET_EXTRACT_RENDER_WORKERS"

	EnvPublishContentDir       = "DOCKET_PUBLISH_CONTENT_DIR"
	EnvPublishPDFDir           = "DOCKET_PUBLISH_PDF_DIR"
	EnvPublishBaseURL          = "DOCKET_PUBLISH_BASE_URL"
	EnvPublishDeadline         = "DOCKET_PUBLISH_DEADLINE"
	EnvPublishSubmissionMethod = "DOCKET_PUBLISH_SUBMISSION_METHOD"
	EnvPublishVideoDuration    = "DOCKET_PUBLISH_VIDEO_DURATION"

	EnvPromptsDir = "DOCKET_PROMPTS_DIR"
)

// PipelineConfig locates source documents and stage artifacts.
type PipelineConfig struct {
	SourceDir     string   `toml:"source_dir"`
	OutputDir     string   `toml:"output_dir"`
	MaxSourceSize string   `toml:"max_source_size"`
	Exclude       []string `toml:"exclude"`
}

// MaxSourceSizeBytes returns MaxSourceSize as a byte count.
func (c *PipelineConfig) MaxSourceSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxSourceSize)
	if err != nil {
		return 50 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.SourceDir != "" {
		c.SourceDir = overlay.SourceDir
	}
	if overlay.OutputDir != "" {
		c.OutputDir = overlay.OutputDir
	}
	if overlay.MaxSourceSize != "" {
		c.MaxSourceSize = overlay.MaxSourceSize
	}
	if overlay.Exclude != nil {
		c.Exclude = overlay.Exclude
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = "pdfs"
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.MaxSourceSize == "" {
		c.MaxSourceSize = "50MB"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineSourceDir); v != "" {
		c.SourceDir = v
	}
	if v := os.Getenv(EnvPipelineOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvPipelineMaxSourceSize); v != "" {
		c.MaxSourceSize = v
	}
	if v := os.Getenv(EnvPipelineExclude); v != "" {
		c.Exclude = splitList(v)
	}
}

func (c *PipelineConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxSourceSize); err != nil {
		return fmt.Errorf("invalid max_source_size: %w", err)
	}
	if c.SourceDir == c.OutputDir {
		return fmt.Errorf("source_dir and output_dir must differ")
	}
	return nil
}

// ExtractMethod names a stage-one text extraction strategy.
type ExtractMethod string

const (
	ExtractVision  ExtractMethod = "vision"
	ExtractDocling ExtractMethod = "docling"
)

// ExtractConfig controls text extraction and section segmentation.
// SkipPages is a pointer so an explicit 0 survives defaulting.
type ExtractConfig struct {
	Method         ExtractMethod `toml:"method"`
	DoclingCommand string        `toml:"docling_command"`
	SkipPages      *int          `toml:"skip_pages"`
	DPI            int           `toml:"dpi"`
	RenderWorkers  int           `toml:"render_workers"`
}

// SkipPageCount returns the number of leading pages segmentation ignores.
func (c *ExtractConfig) SkipPageCount() int {
	if c.SkipPages == nil {
		return 2
	}
	return *c.SkipPages
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ExtractConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ExtractConfig) Merge(overlay *ExtractConfig) {
	if overlay.Method != "" {
		c.Method = overlay.Method
	}
	if overlay.DoclingCommand != "" {
		c.DoclingCommand = overlay.DoclingCommand
	}
	if overlay.SkipPages != nil {
		n := *overlay.SkipPages
		c.SkipPages = &n
	}
	if overlay.DPI != 0 {
		c.DPI = overlay.DPI
	}
	if overlay.RenderWorkers != 0 {
		c.RenderWorkers = overlay.RenderWorkers
	}
}

func (c *ExtractConfig) loadDefaults() {
	if c.Method == "" {
		c.Method = ExtractVision
	}
	if c.DoclingCommand == "" {
		c.DoclingCommand = "docling"
	}
	if c.SkipPages == nil {
		n := 2
		c.SkipPages = &n
	}
	if c.DPI == 0 {
		c.DPI = 150
	}
	if c.RenderWorkers == 0 {
		c.RenderWorkers = 4
	}
}

func (c *ExtractConfig) loadEnv() {
	if v := os.Getenv(EnvExtractMethod); v != "" {
		c.Method = ExtractMethod(v)
	}
	if v := os.Getenv(EnvExtractDoclingCmd); v != "" {
		c.DoclingCommand = v
	}
	if v := os.Getenv(EnvExtractSkipPages); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SkipPages = &n
		}
	}
	if v := os.Getenv(EnvExtractDPI); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DPI = n
		}
	}
	if v := os.Getenv(EnvExtractRenderWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RenderWorkers = n
		}
	}
}

func (c *ExtractConfig) validate() error {
	switch c.Method {
	case ExtractVision, ExtractDocling:
	default:
		return fmt.Errorf("invalid method %q: must be vision or docling", c.Method)
	}
	if *c.SkipPages < 0 {
		return fmt.Errorf("invalid skip_pages: %d", *c.SkipPages)
	}
	if c.DPI < 36 || c.DPI > 600 {
		return fmt.Errorf("invalid dpi: %d", c.DPI)
	}
	if c.RenderWorkers < 1 {
		return fmt.Errorf("invalid render_workers: %d", c.RenderWorkers)
	}
	return nil
}

// PublishConfig controls the published record and where it lands.
type PublishConfig struct {
	ContentDir       string `toml:"content_dir"`
	PDFDir           string `toml:"pdf_dir"`
	SkipPDFCopy      bool   `toml:"skip_pdf_copy"`
	BaseURL          string `toml:"base_url"`
	Deadline         string `toml:"deadline"`
	SubmissionMethod string `toml:"submission_method"`
	VideoDuration    string `toml:"video_duration"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PublishConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PublishConfig) Merge(overlay *PublishConfig) {
	if overlay.ContentDir != "" {
		c.ContentDir = overlay.ContentDir
	}
	if overlay.PDFDir != "" {
		c.PDFDir = overlay.PDFDir
	}
	if overlay.SkipPDFCopy {
		c.SkipPDFCopy = true
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Deadline != "" {
		c.Deadline = overlay.Deadline
	}
	if overlay.SubmissionMethod != "" {
		c.SubmissionMethod = overlay.SubmissionMethod
	}
	if overlay.VideoDuration != "" {
		c.VideoDuration = overlay.VideoDuration
	}
}

func (c *PublishConfig) loadDefaults() {
	if c.ContentDir == "" {
		c.ContentDir = "src/data/bills"
	}
	if c.PDFDir == "" {
		c.PDFDir = "public/pdfs"
	}
	if c.Deadline == "" {
		c.Deadline = "2025-12-31"
	}
	if c.SubmissionMethod == "" {
		c.SubmissionMethod = "Email to clerk@parliament.gov.gh"
	}
	if c.VideoDuration == "" {
		c.VideoDuration = "10:00"
	}
}

func (c *PublishConfig) loadEnv() {
	if v := os.Getenv(EnvPublishContentDir); v != "" {
		c.ContentDir = v
	}
	if v := os.Getenv(EnvPublishPDFDir); v != "" {
		c.PDFDir = v
	}
	if v := os.Getenv(EnvPublishBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvPublishDeadline); v != "" {
		c.Deadline = v
	}
	if v := os.Getenv(EnvPublishSubmissionMethod); v != "" {
		c.SubmissionMethod = v
	}
	if v := os.Getenv(EnvPublishVideoDuration); v != "" {
		c.VideoDuration = v
	}
}

func (c *PublishConfig) validate() error {
	if _, err := time.Parse(time.DateOnly, c.Deadline); err != nil {
		return fmt.Errorf("invalid deadline %q: want YYYY-MM-DD", c.Deadline)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

// PromptsConfig points at an optional directory of instruction overrides.
type PromptsConfig struct {
	Dir string `toml:"dir"`
}

// Finalize applies environment variable overrides and validation.
func (c *PromptsConfig) Finalize() error {
	if v := os.Getenv(EnvPromptsDir); v != "" {
		c.Dir = v
	}
	if c.Dir == "" {
		return nil
	}
	info, err := os.Stat(c.Dir)
	if err != nil {
		return fmt.Errorf("prompts dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("prompts dir %s is not a directory", c.Dir)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *PromptsConfig) Merge(overlay *PromptsConfig) {
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
