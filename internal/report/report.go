package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"EquityScope/internal/analyzer"
	"EquityScope/internal/collector"
	"EquityScope/internal/model"
)

// Document is the complete machine-readable output of one analysis run.
// Analyzer sections are nil when their inputs were unavailable.
type Document struct {
	RunID       string                      `json:"run_id"`
	Symbol      string                      `json:"symbol"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Period      string                      `json:"period"`
	Profile     model.CompanyProfile        `json:"profile"`
	Technical   *analyzer.TechnicalResult   `json:"technical_analysis,omitempty"`
	Fundamental *analyzer.FundamentalResult `json:"fundamental_analysis,omitempty"`
	Risk        *analyzer.RiskResult        `json:"risk_analysis,omitempty"`
	Valuation   *analyzer.ValuationResult   `json:"valuation_analysis,omitempty"`
}

// NewDocument stamps a fresh document for one collected dataset.
func NewDocument(ds *collector.Dataset, period string) *Document {
	return &Document{
		RunID:       uuid.NewString(),
		Symbol:      ds.Symbol,
		GeneratedAt: time.Now(),
		Period:      period,
		Profile:     ds.Profile,
	}
}

// Artifacts lists the files one Generate call produced.
type Artifacts struct {
	JSONPath     string
	MarkdownPath string
	HTMLPath     string
	ChartPath    string
}

// Generator writes report artifacts under OutputDir/SYMBOL/reports.
type Generator struct {
	OutputDir string
	Chart     bool
	HTML      bool
	Log       zerolog.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(outputDir string, chart, html bool, log zerolog.Logger) *Generator {
	return &Generator{OutputDir: outputDir, Chart: chart, HTML: html, Log: log}
}

// Generate writes the JSON document and Markdown report, plus the HTML render
// and price chart when enabled. The chart degrades with a warning; everything
// else fails the call.
func (g *Generator) Generate(doc *Document, prices *model.PriceSeries) (*Artifacts, error) {
	dir := filepath.Join(g.OutputDir, doc.Symbol, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	art := &Artifacts{}

	art.JSONPath = filepath.Join(dir, "full_report.json")
	if err := WriteJSON(doc, art.JSONPath); err != nil {
		return nil, err
	}
	g.Log.Info().Str("path", art.JSONPath).Msg("json report saved")

	md := RenderMarkdown(doc)
	art.MarkdownPath = filepath.Join(dir, "report.md")
	if err := os.WriteFile(art.MarkdownPath, []byte(md), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown report: %w", err)
	}
	g.Log.Info().Str("path", art.MarkdownPath).Msg("markdown report saved")

	if g.HTML {
		page, err := RenderHTML(doc.Symbol, md)
		if err != nil {
			return nil, err
		}
		art.HTMLPath = filepath.Join(dir, "report.html")
		if err := os.WriteFile(art.HTMLPath, page, 0o644); err != nil {
			return nil, fmt.Errorf("write html report: %w", err)
		}
		g.Log.Info().Str("path", art.HTMLPath).Msg("html report saved")
	}

	if g.Chart && prices != nil && doc.Technical != nil {
		path := filepath.Join(dir, "chart.html")
		if err := WriteChart(path, prices, doc.Technical); err != nil {
			g.Log.Warn().Err(err).Msg("chart render failed")
		} else {
			art.ChartPath = path
			g.Log.Info().Str("path", path).Msg("chart saved")
		}
	}

	return art, nil
}
