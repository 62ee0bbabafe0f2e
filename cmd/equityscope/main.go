package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"EquityScope/internal/collector"
	"EquityScope/internal/config"
	"EquityScope/internal/recorder"
	"EquityScope/internal/report"
	"EquityScope/internal/scheduler"
)

func main() {
	var (
		cfgPath = flag.String("config", "configs/config.yaml", "path to YAML config")
		symbol  = flag.String("symbol", "", "ticker symbol (overrides config)")
		period  = flag.String("period", "", "lookback period, e.g. 1y, 2y, 5y (overrides config)")
		watch   = flag.Bool("watch", false, "keep running and re-analyze on the configured cron schedule")
		noCache = flag.Bool("no-cache", false, "bypass the on-disk data cache")
		mock    = flag.Bool("mock", false, "use generated data instead of the market data API")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	logLevel := zerolog.InfoLevel
	if *debug {
		logLevel = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(logLevel).With().Timestamp().Logger()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *symbol != "" {
		cfg.DataSource.Symbol = *symbol
	}
	if *period != "" {
		cfg.DataSource.Period = *period
	}
	if *noCache {
		cfg.Cache.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	var fetcher collector.Fetcher
	if *mock {
		fetcher = &collector.MockFetcher{}
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Info().Str("source", fetcher.Name()).Str("symbol", cfg.DataSource.Symbol).Msg("starting")

	var cache collector.Cache
	if !cfg.Cache.Disabled {
		cache = collector.NewFileCache(cfg.Cache.Dir,
			time.Duration(cfg.Cache.TTLMinutes)*time.Minute, log)
	}
	col := collector.New(fetcher, cache, cfg.DataSource.Benchmark, log)

	gen := report.NewGenerator(cfg.Report.OutputDir, cfg.Report.Chart, cfg.Report.HTML, log)

	var rec recorder.Recorder
	if cfg.Recorder.HistoryFile != "" {
		fr, err := recorder.NewFileRecorder(cfg.Recorder.HistoryFile, log)
		if err != nil {
			log.Warn().Err(err).Msg("run history unavailable, using noop recorder")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = fr
			defer fr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(ctx, col, gen, rec, cfg, log)

	if !*watch {
		art, err := sched.RunNow()
		if err != nil {
			log.Fatal().Err(err).Msg("analysis failed")
		}
		log.Info().Str("report", art.MarkdownPath).Msg("done")
		return
	}

	if err := sched.Register(); err != nil {
		log.Fatal().Err(err).Msg("register schedule")
	}
	sched.Start()
	defer sched.Stop()

	log.Info().Msg("watch mode running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
}
