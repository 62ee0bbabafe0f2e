package scheduler

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquityScope/internal/collector"
	"EquityScope/internal/config"
	"EquityScope/internal/recorder"
	"EquityScope/internal/report"
)

func testScheduler(t *testing.T, rec recorder.Recorder) *Scheduler {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.DataSource.Symbol = "AAPL"

	col := collector.New(&collector.MockFetcher{Price: 150}, nil, cfg.DataSource.Benchmark, zerolog.Nop())
	gen := report.NewGenerator(t.TempDir(), false, false, zerolog.Nop())
	return New(context.Background(), col, gen, rec, cfg, zerolog.Nop())
}

func TestRunNowProducesReportAndRecord(t *testing.T) {
	historyPath := t.TempDir() + "/runs.jsonl"
	rec, err := recorder.NewFileRecorder(historyPath, zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	s := testScheduler(t, rec)

	art, err := s.RunNow()
	require.NoError(t, err)

	info, err := os.Stat(art.JSONPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	_, err = os.Stat(art.MarkdownPath)
	require.NoError(t, err)

	recs, err := recorder.ReadAll(historyPath)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "AAPL", recs[0].Symbol)
	assert.NotEmpty(t, recs[0].RunID)
	// Technical, risk, and valuation always run on mock prices; fundamentals
	// are absent from the mock dataset.
	assert.Equal(t, 3, recs[0].SectionsComplete)
	require.NotNil(t, recs[0].CurrentPrice)
}

func TestRunNowFailsWhenPricesUnavailable(t *testing.T) {
	s := testScheduler(t, recorder.NewNoopRecorder())
	s.Collector = collector.New(&collector.MockFetcher{BarsErr: os.ErrDeadlineExceeded}, nil, "", zerolog.Nop())

	_, err := s.RunNow()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collect AAPL")
}

func TestRegisterRejectsBadCron(t *testing.T) {
	s := testScheduler(t, recorder.NewNoopRecorder())
	s.Cfg.Schedule.WatchCron = "not a cron expression"

	require.Error(t, s.Register())
}

func TestRegisterAcceptsDefaultCron(t *testing.T) {
	s := testScheduler(t, recorder.NewNoopRecorder())

	require.NoError(t, s.Register())
	s.Start()
	s.Stop()
}
