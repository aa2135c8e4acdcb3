package model

import "time"

// TradeType indicates the direction of an executed order.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// SellReason explains what triggered a sell.
type SellReason string

const (
	ReasonDeadCross    SellReason = "DEAD_CROSS"
	ReasonStopLoss     SellReason = "STOP_LOSS"
	ReasonTakeProfit   SellReason = "TAKE_PROFIT"
	ReasonTrailingStop SellReason = "TRAILING_STOP"
)

// Transaction is an immutable record of one executed order.
type Transaction struct {
	Time     time.Time
	Type     TradeType
	Symbol   string
	Quantity float64
	Price    float64
	Fees     float64
	Total    float64 // cost for buys, net revenue for sells

	// Sell-only fields.
	AvgBuyPrice float64
	Profit      float64
	Reason      SellReason

	// Buy-only annotations.
	Pyramiding       bool
	GoldenCrossEntry bool
}
