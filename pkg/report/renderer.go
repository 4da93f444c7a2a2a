package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog/log"
)

const (
	DefaultOutputFile = "campaign.pdf"

	FontFamily      = "FreeSerif"
	RegularFontFile = "FreeSerif.ttf"
	BoldFontFile    = "FreeSerifBold.ttf"

	reportTitle     = "Marketing Campaign Report"
	timestampLayout = "2006-01-02 15:04:05"
	bottomMargin    = 15.0
)

type Config struct {
	FontDir  string `envconfig:"FONT_DIR" split_words:"true"`
	CoreFont string `envconfig:"CORE_FONT" split_words:"true"`
}

type Option func(*Renderer)

// WithFontDir loads FreeSerif TTF files from dir instead of the working directory.
func WithFontDir(dir string) Option {
	return func(r *Renderer) {
		if trimmed := strings.TrimSpace(dir); trimmed != "" {
			r.fontDir = trimmed
		}
	}
}

// WithCoreFont switches to a built-in PDF font (Times, Helvetica, Courier).
// Text is translated to cp1252.
func WithCoreFont(family string) Option {
	return func(r *Renderer) {
		r.coreFont = strings.TrimSpace(family)
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// Renderer turns campaign reports into paginated PDF documents.
type Renderer struct {
	fontDir  string
	coreFont string
	now      func() time.Time
}

func NewRenderer(cfg Config, opts ...Option) *Renderer {
	r := &Renderer{
		fontDir:  strings.TrimSpace(cfg.FontDir),
		coreFont: strings.TrimSpace(cfg.CoreFont),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Result describes a written report.
type Result struct {
	Path      string `json:"path"`
	Pages     int    `json:"pages"`
	Campaigns int    `json:"campaigns"`
}

func (r Result) Message() string {
	return "PDF report generated successfully: " + r.Path
}

// RenderFile reads the campaign JSON at jsonPath and writes the PDF to
// outputPath, or to campaign.pdf in the working directory when outputPath
// is empty. The returned Result carries the absolute output path.
func (r *Renderer) RenderFile(jsonPath string, outputPath string) (Result, error) {
	res, err := r.renderFile(jsonPath, outputPath)
	if err != nil {
		log.Error().Err(err).
			Str("json_file", jsonPath).
			Str("output_file", outputPath).
			Msg("error generating pdf report")
		return Result{}, err
	}

	log.Info().
		Str("output_file", res.Path).
		Int("pages", res.Pages).
		Int("campaigns", res.Campaigns).
		Msg("pdf report generated")
	return res, nil
}

func (r *Renderer) renderFile(jsonPath string, outputPath string) (Result, error) {
	if strings.TrimSpace(jsonPath) == "" {
		return Result{}, fmt.Errorf("%w: json file path is required", ErrInputRead)
	}

	target, err := ResolveOutputPath(outputPath)
	if err != nil {
		return Result{}, err
	}

	doc, err := LoadCampaignReport(jsonPath)
	if err != nil {
		return Result{}, err
	}

	pdf, err := r.Build(doc)
	if err != nil {
		return Result{}, err
	}

	if err := writeAtomic(target, pdf); err != nil {
		return Result{}, err
	}

	return Result{
		Path:      target,
		Pages:     pdf.PageCount(),
		Campaigns: len(doc.Campaigns),
	}, nil
}

// ResolveOutputPath returns the absolute destination for a report.
func ResolveOutputPath(outputPath string) (string, error) {
	target := strings.TrimSpace(outputPath)
	if target == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: resolve working directory: %v", ErrOutputWrite, err)
		}
		target = filepath.Join(wd, DefaultOutputFile)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("%w: resolve output path: %v", ErrOutputWrite, err)
	}
	return abs, nil
}

// Build lays out the document in memory without writing it.
func (r *Renderer) Build(doc *CampaignReport) (*fpdf.Fpdf, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: report is nil", ErrInvalidCampaign)
	}

	now := r.now()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator("marketing-ai", true)
	pdf.SetCreationDate(now)

	d, err := r.newDocument(pdf)
	if err != nil {
		return nil, err
	}

	d.titlePage(now.Format(timestampLayout))
	for _, c := range doc.Campaigns {
		d.campaignPage(c)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("%w: layout: %v", ErrOutputWrite, pdf.Error())
	}
	return pdf, nil
}

func (r *Renderer) newDocument(pdf *fpdf.Fpdf) (*document, error) {
	if r.coreFont != "" {
		return &document{
			pdf:    pdf,
			family: r.coreFont,
			tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		}, nil
	}

	dir := r.fontDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("%w: resolve working directory: %v", ErrFontMissing, err)
		}
		dir = wd
	}

	fonts := []struct {
		style string
		file  string
	}{
		{"", RegularFontFile},
		{"B", BoldFontFile},
	}
	for _, f := range fonts {
		data, err := os.ReadFile(filepath.Join(dir, f.file))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFontMissing, err)
		}
		pdf.AddUTF8FontFromBytes(FontFamily, f.style, data)
	}
	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrFontMissing, pdf.Error())
	}

	return &document{
		pdf:    pdf,
		family: FontFamily,
		tr:     func(s string) string { return s },
	}, nil
}

// writeAtomic never leaves a partial file at target.
func writeAtomic(target string, pdf *fpdf.Fpdf) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".campaign-*.pdf.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	tmpName := tmp.Name()

	if err := pdf.Output(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	return nil
}
