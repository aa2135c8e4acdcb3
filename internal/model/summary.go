package model

// Summary aggregates the outcome of one completed backtest run.
type Summary struct {
	FinalBalance     float64
	HoldingsValue    float64
	TotalAssets      float64
	TotalProfit      float64
	ReturnRate       float64 // percent on initial balance
	TransactionCount int
}
