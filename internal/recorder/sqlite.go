package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	"TrendBacktest/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run results to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs
// migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so analysis tools can read while a watch-mode run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                TEXT PRIMARY KEY,
			started_at        INTEGER NOT NULL,
			config_path       TEXT,
			interval          TEXT,
			final_balance     REAL,
			holdings_value    REAL,
			total_assets      REAL,
			total_profit      REAL,
			return_rate       REAL,
			transaction_count INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			time          INTEGER NOT NULL,
			type          TEXT,
			symbol        TEXT,
			quantity      REAL,
			price         REAL,
			fees          REAL,
			total         REAL,
			avg_buy_price REAL,
			profit        REAL,
			reason        TEXT,
			pyramiding    INTEGER,
			golden_entry  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_run ON transactions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_symbol ON transactions(symbol, time)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := run.Summary
	_, err := r.db.Exec(`INSERT INTO runs
		(id, started_at, config_path, interval,
		 final_balance, holdings_value, total_assets, total_profit, return_rate, transaction_count)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.ConfigPath, run.Interval,
		s.FinalBalance, s.HoldingsValue, s.TotalAssets, s.TotalProfit, s.ReturnRate, s.TransactionCount,
	)
	return err
}

func (r *SQLiteRecorder) RecordTransactions(runID string, txs []model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO transactions
		(run_id, time, type, symbol, quantity, price, fees, total,
		 avg_buy_price, profit, reason, pyramiding, golden_entry)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.Exec(
			runID, t.Time.Unix(), string(t.Type), t.Symbol,
			t.Quantity, t.Price, t.Fees, t.Total,
			t.AvgBuyPrice, t.Profit, string(t.Reason),
			boolToInt(t.Pyramiding), boolToInt(t.GoldenCrossEntry),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
