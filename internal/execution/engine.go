// Package execution turns trend signals into simulated orders: it runs the
// buy filter chain, sizes positions, mutates the ledger, and records every
// fill in an append-only transaction journal.
package execution

import (
	"errors"
	"math"
	"time"

	"TrendBacktest/internal/config"
	"TrendBacktest/internal/ledger"
	"TrendBacktest/internal/model"
	"TrendBacktest/internal/risk"
)

// A partial sell that would leave less than this quantity liquidates the
// whole position instead.
const dustQuantity = 1.0

// TickContext is the immutable snapshot a trade decision is made from.
type TickContext struct {
	Time        time.Time
	Symbol      string
	Price       float64
	Point       *model.TimeSeriesPoint
	GoldenEntry bool // fresh golden-cross edge on this tick
}

// Engine executes buys and sells against the ledger. Rejected orders are
// no-ops reported through the returned reason, never errors.
type Engine struct {
	cfg     *config.Config
	ledger  *ledger.Ledger
	risk    *risk.Manager
	journal []model.Transaction
}

// NewEngine creates an execution engine bound to one ledger and risk manager.
func NewEngine(cfg *config.Config, l *ledger.Ledger, r *risk.Manager) *Engine {
	return &Engine{cfg: cfg, ledger: l, risk: r}
}

// Transactions returns the full journal in execution order.
func (e *Engine) Transactions() []model.Transaction { return e.journal }

// TransactionsFor returns the journal entries for one symbol.
func (e *Engine) TransactionsFor(symbol string) []model.Transaction {
	var out []model.Transaction
	for _, tx := range e.journal {
		if tx.Symbol == symbol {
			out = append(out, tx)
		}
	}
	return out
}

// TryBuy runs the filter chain and, if it passes, sizes and executes a buy.
// A nil transaction comes with the reason the order was skipped.
func (e *Engine) TryBuy(tc TickContext) (*model.Transaction, string) {
	if e.risk.Paused() {
		return nil, "trading paused after consecutive losses"
	}
	if name, ok := e.passesFilters(tc); !ok {
		return nil, "filter: " + name
	}

	holding := e.ledger.Holding(tc.Symbol)
	pyramiding := holding != nil
	if pyramiding {
		if !e.cfg.Features.Pyramiding {
			return nil, "position already open"
		}
		if tc.GoldenEntry {
			// A fresh golden edge on an open position is a re-entry, not a
			// pyramid tranche.
			return nil, "golden entry with open position"
		}
	}

	var quantity float64
	if pyramiding {
		quantity = e.pyramidQuantity(holding.Quantity, tc.Price)
	} else {
		investment := e.ledger.Balance()
		if e.cfg.Features.PositionSizing {
			investment *= e.cfg.Buy.StockRate
		}
		quantity = math.Floor(investment / tc.Price)
	}
	if quantity < 1 {
		return nil, "zero quantity"
	}

	cost, fees, err := e.ledger.Buy(tc.Symbol, quantity, tc.Price, e.cfg.TradeFees.Buy, tc.Time)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return nil, "insufficient funds"
		}
		return nil, err.Error()
	}

	tx := model.Transaction{
		Time:             tc.Time,
		Type:             model.TradeBuy,
		Symbol:           tc.Symbol,
		Quantity:         quantity,
		Price:            tc.Price,
		Fees:             fees,
		Total:            cost,
		Pyramiding:       pyramiding,
		GoldenCrossEntry: tc.GoldenEntry,
	}
	e.journal = append(e.journal, tx)
	return &e.journal[len(e.journal)-1], ""
}

// Sell executes an exit. Risk-triggered exits liquidate the full position;
// ordinary dead-cross exits sell the configured fraction, clamped to
// [1, holding] and rounded, liquidating entirely rather than leaving dust.
func (e *Engine) Sell(tc TickContext, reason model.SellReason, full bool) (*model.Transaction, string) {
	holding := e.ledger.Holding(tc.Symbol)
	if holding == nil {
		return nil, "no open position"
	}

	quantity := holding.Quantity
	if !full {
		quantity = math.Round(holding.Quantity * e.cfg.Sell.StockRate)
		if quantity < 1 {
			quantity = 1
		}
		if quantity > holding.Quantity {
			quantity = holding.Quantity
		}
		if holding.Quantity-quantity < dustQuantity {
			quantity = holding.Quantity
		}
	}

	avgBuyPrice := holding.AvgPrice
	revenue, fees, profit, err := e.ledger.Sell(tc.Symbol, quantity, tc.Price, e.cfg.TradeFees.Sell)
	if err != nil {
		return nil, err.Error()
	}
	e.risk.RecordResult(profit)

	tx := model.Transaction{
		Time:        tc.Time,
		Type:        model.TradeSell,
		Symbol:      tc.Symbol,
		Quantity:    quantity,
		Price:       tc.Price,
		Fees:        fees,
		Total:       revenue,
		AvgBuyPrice: avgBuyPrice,
		Profit:      profit,
		Reason:      reason,
	}
	e.journal = append(e.journal, tx)
	return &e.journal[len(e.journal)-1], ""
}

// pyramidQuantity sizes the next tranche by halving the base investment until
// the accumulated quantity reaches the current holding; the next half is the
// incremental investment. Tranche sizes shrink monotonically, and a tranche
// always buys at least one unit.
func (e *Engine) pyramidQuantity(heldQuantity, price float64) float64 {
	investment := e.ledger.Balance()
	if e.cfg.Features.PositionSizing {
		investment *= e.cfg.Buy.StockRate
	}
	accumulated := 0.0
	for accumulated < heldQuantity {
		step := math.Floor(investment / price)
		if step < 1 {
			break
		}
		accumulated += step
		investment /= 2
	}
	quantity := math.Floor(investment / price)
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}
