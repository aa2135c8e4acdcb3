// Package ledger implements the in-memory account a simulation trades
// against: a cash balance plus per-symbol holdings. A ledger is owned
// exclusively by one simulation driver for the duration of a run.
package ledger

import (
	"errors"
	"time"

	"TrendBacktest/internal/model"
)

var (
	// ErrInsufficientFunds is returned when a buy would overdraw the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientHolding is returned when a sell exceeds the held quantity.
	ErrInsufficientHolding = errors.New("insufficient holding")
)

// Ledger tracks the account state mutated by executed orders. The balance
// never goes negative: buys that cannot be covered are rejected as no-ops.
type Ledger struct {
	balance  float64
	holdings map[string]*model.Holding
}

// New creates a ledger with the given starting balance.
func New(initialBalance float64) *Ledger {
	return &Ledger{
		balance:  initialBalance,
		holdings: make(map[string]*model.Holding),
	}
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 { return l.balance }

// Holding returns the open position for symbol, or nil.
func (l *Ledger) Holding(symbol string) *model.Holding {
	return l.holdings[symbol]
}

// Symbols returns the symbols with open positions, sorted for deterministic
// iteration.
func (l *Ledger) Symbols() []string {
	out := make([]string, 0, len(l.holdings))
	for s := range l.holdings {
		out = append(out, s)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Buy debits cost plus fees and merges the fill into the holding, recomputing
// the cost-weighted average price. Returns the cost and fees charged.
func (l *Ledger) Buy(symbol string, quantity, price, feeRate float64, at time.Time) (cost, fees float64, err error) {
	cost = price * quantity
	fees = cost * feeRate
	if l.balance < cost+fees {
		return 0, 0, ErrInsufficientFunds
	}
	l.balance -= cost + fees

	h, ok := l.holdings[symbol]
	if !ok {
		l.holdings[symbol] = &model.Holding{
			Quantity: quantity,
			AvgPrice: price,
			MaxPrice: price,
			BuyTime:  at,
		}
		return cost, fees, nil
	}
	h.AvgPrice = (h.AvgPrice*h.Quantity + price*quantity) / (h.Quantity + quantity)
	h.Quantity += quantity
	if price > h.MaxPrice {
		h.MaxPrice = price
	}
	h.BuyTime = at
	return cost, fees, nil
}

// Sell credits revenue minus fees and reduces the holding, deleting it when
// fully closed. The average price is left unchanged. Returns the net revenue,
// fees, and realized profit of the fill.
func (l *Ledger) Sell(symbol string, quantity, price, feeRate float64) (revenue, fees, profit float64, err error) {
	h, ok := l.holdings[symbol]
	if !ok || quantity > h.Quantity {
		return 0, 0, 0, ErrInsufficientHolding
	}
	gross := price * quantity
	fees = gross * feeRate
	revenue = gross - fees
	profit = (price-h.AvgPrice)*quantity - fees

	l.balance += revenue
	h.Quantity -= quantity
	if h.Quantity == 0 {
		delete(l.holdings, symbol)
	}
	return revenue, fees, profit, nil
}

// TotalAssets returns balance plus the value of all holdings at the prices
// reported by priceOf. Symbols without an available price are skipped.
func (l *Ledger) TotalAssets(priceOf func(symbol string) (float64, bool)) float64 {
	total := l.balance
	for symbol, h := range l.holdings {
		if price, ok := priceOf(symbol); ok {
			total += h.Quantity * price
		}
	}
	return total
}

// HoldingsValue returns the market value of all holdings at the prices
// reported by priceOf.
func (l *Ledger) HoldingsValue(priceOf func(symbol string) (float64, bool)) float64 {
	return l.TotalAssets(priceOf) - l.balance
}
