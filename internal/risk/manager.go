// Package risk evaluates protective exits for open positions and runs the
// consecutive-loss circuit breaker.
package risk

import (
	"time"

	"TrendBacktest/internal/config"
	"TrendBacktest/internal/cross"
	"TrendBacktest/internal/model"
)

// Manager decides protective liquidations and tracks realized results for
// the trading-pause breaker. It holds no position state of its own; holdings
// stay owned by the ledger.
type Manager struct {
	features config.FeatureFlags
	sell     config.SellConfig
	maxLoss  int

	consecutiveLosses int
	paused            bool
}

// NewManager creates a risk manager from the run configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		features: cfg.Features,
		sell:     cfg.Sell,
		maxLoss:  cfg.Risk.MaxConsecutiveLosses,
	}
}

// Check evaluates one holding at the current price and reports whether a
// protective full liquidation should fire. Positions bought on this exact
// tick are skipped. Stop-loss and trailing-stop only trigger while the
// symbol's cross state is DEAD; during an uptrend these protections are
// inactive. Take-profit has no such restriction.
//
// The holding's MaxPrice is advanced as a side effect, so trailing stops
// measure drawdown from the highest price seen since entry.
func (m *Manager) Check(h *model.Holding, price float64, state cross.State, now time.Time) (model.SellReason, bool) {
	if h == nil || h.Quantity <= 0 || h.BuyTime.Equal(now) {
		return "", false
	}
	if price > h.MaxPrice {
		h.MaxPrice = price
	}
	profitRate := h.ProfitRate(price)

	if m.features.StopLoss && state == cross.StateDead && profitRate <= m.sell.StopLoss {
		return model.ReasonStopLoss, true
	}
	if m.features.TakeProfit && profitRate >= m.sell.TakeProfit {
		return model.ReasonTakeProfit, true
	}
	if m.features.TrailingStop && state == cross.StateDead && h.MaxPrice > 0 {
		drawdown := (h.MaxPrice - price) / h.MaxPrice
		if drawdown >= m.sell.TrailingStopPercent {
			return model.ReasonTrailingStop, true
		}
	}
	return "", false
}

// RecordResult feeds a realized trade result into the circuit breaker: any
// loss increments the counter, any gain resets it and lifts the pause.
func (m *Manager) RecordResult(profit float64) {
	switch {
	case profit < 0:
		m.consecutiveLosses++
		if m.consecutiveLosses >= m.maxLoss {
			m.paused = true
		}
	case profit > 0:
		m.consecutiveLosses = 0
		m.paused = false
	}
}

// Paused reports whether new buys are blocked. Sells are never blocked.
func (m *Manager) Paused() bool {
	return m.paused && m.features.ConsecutiveLossProtection
}

// ConsecutiveLosses returns the current loss streak.
func (m *Manager) ConsecutiveLosses() int { return m.consecutiveLosses }
