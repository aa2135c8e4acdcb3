package model

import "time"

// Holding is an open position owned by the ledger. It exists in the
// holdings map iff Quantity > 0.
type Holding struct {
	Quantity float64
	AvgPrice float64   // cost-weighted average, recomputed on buys only
	MaxPrice float64   // highest price seen since entry, for trailing stops
	BuyTime  time.Time // time of the most recent fill
}

// ProfitRate returns the unrealized return at the given price.
func (h *Holding) ProfitRate(price float64) float64 {
	if h.AvgPrice == 0 {
		return 0
	}
	return (price - h.AvgPrice) / h.AvgPrice
}
