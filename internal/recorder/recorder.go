package recorder

import (
	"time"

	"TrendBacktest/internal/model"
)

// RunRecord is one completed backtest run.
type RunRecord struct {
	ID         string // uuid assigned by the caller
	StartedAt  time.Time
	ConfigPath string
	Interval   string
	Summary    model.Summary
}

// Recorder persists run results for later analysis.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecordTransactions(runID string, txs []model.Transaction) error
	Close() error
}
