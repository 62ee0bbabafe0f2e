package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"EquityScope/internal/analyzer"
	"EquityScope/internal/collector"
	"EquityScope/internal/config"
	"EquityScope/internal/recorder"
	"EquityScope/internal/report"
)

// Scheduler drives repeated analysis runs for one ticker. In watch mode it
// re-runs on a cron expression; RunNow covers the one-shot analyze mode.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Generator *report.Generator
	Recorder  recorder.Recorder
	Cfg       *config.Config
	Ctx       context.Context
	Log       zerolog.Logger
}

// New creates a Scheduler. The cron expression format includes seconds.
func New(ctx context.Context, col *collector.Collector, gen *report.Generator, rec recorder.Recorder, cfg *config.Config, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Generator: gen,
		Recorder:  rec,
		Cfg:       cfg,
		Ctx:       ctx,
		Log:       log,
	}
}

// Register schedules the analysis task on the configured cron expression.
func (s *Scheduler) Register() error {
	if _, err := s.Cron.AddFunc(s.Cfg.Schedule.WatchCron, s.analysisTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info().Str("cron", s.Cfg.Schedule.WatchCron).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info().Msg("scheduler stopped")
}

// RunNow executes one analysis run immediately and returns its artifacts.
func (s *Scheduler) RunNow() (*report.Artifacts, error) {
	started := time.Now()
	ds := s.Cfg.DataSource

	data, err := s.Collector.Collect(ds.Symbol, ds.Period, ds.Interval)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", ds.Symbol, err)
	}

	doc := report.NewDocument(data, ds.Period)
	s.analyze(doc, data)

	art, err := s.Generator.Generate(doc, data.Prices)
	if err != nil {
		return nil, fmt.Errorf("generate report for %s: %w", ds.Symbol, err)
	}

	if err := s.Recorder.Record(recorder.Summarize(doc, art, time.Since(started))); err != nil {
		s.Log.Error().Err(err).Msg("record run")
	}

	s.Log.Info().
		Str("symbol", doc.Symbol).
		Str("run_id", doc.RunID).
		Dur("took", time.Since(started)).
		Msg("analysis run complete")
	return art, nil
}

// analyze fills in every analyzer section the dataset supports. Sections
// whose inputs are missing stay nil.
func (s *Scheduler) analyze(doc *report.Document, data *collector.Dataset) {
	tech, err := analyzer.AnalyzeTechnical(data.Prices, s.Cfg.Technical)
	if err != nil {
		s.Log.Warn().Err(err).Msg("technical analysis skipped")
	} else {
		doc.Technical = tech
	}

	if data.Fundamentals != nil {
		doc.Fundamental = analyzer.AnalyzeFundamental(data.Fundamentals, data.Profile)
	}

	risk, err := analyzer.AnalyzeRisk(data.Prices, data.Benchmark, s.Cfg.Risk)
	if err != nil {
		s.Log.Warn().Err(err).Msg("risk analysis skipped")
	} else {
		doc.Risk = risk
	}

	doc.Valuation = analyzer.AnalyzeValuation(analyzer.ValuationInput{
		Profile:      data.Profile,
		Prices:       data.Prices,
		Fundamentals: data.Fundamentals,
		Dividends:    data.Dividends,
		Earnings:     data.Earnings,
		Now:          time.Now(),
	}, s.Cfg.Valuation)
}

func (s *Scheduler) analysisTask() {
	if s.Ctx.Err() != nil {
		return
	}
	if _, err := s.RunNow(); err != nil {
		s.Log.Error().Err(err).Msg("scheduled analysis run failed")
	}
}
