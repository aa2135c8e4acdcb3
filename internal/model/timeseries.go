package model

import "time"

// MAValue is one moving-average sample with its bounded slope.
type MAValue struct {
	Value float64
	Slope float64
}

// MACDResult holds the last MACD line, signal line, and histogram values.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// BollingerBands holds band values and the normalized %B position.
type BollingerBands struct {
	Upper    float64
	Middle   float64
	Lower    float64
	PercentB float64
}

// VolumeTrend classifies recent volume behavior.
type VolumeTrend string

const (
	VolumeIncreasing VolumeTrend = "increasing"
	VolumeDecreasing VolumeTrend = "decreasing"
	VolumeNeutral    VolumeTrend = "neutral"
)

// VolumeAnalysis is the result of comparing recent volume and price direction.
type VolumeAnalysis struct {
	Trend      VolumeTrend
	Divergence bool // price rising while volume is not increasing
}

// TimeSeriesPoint is one simulated tick of derived metrics for a symbol or
// group. Points are append-only; index i never sees data newer than its time.
type TimeSeriesPoint struct {
	Time           time.Time
	ChangeRate     float64 // percent vs the session-open price
	VolumeStrength float64 // current volume over trailing mean volume
	MA             map[int]MAValue

	// Symbol-only indicators; nil while history is insufficient.
	OBV            *float64
	OBVSlope       *float64
	RSI            *float64
	MACD           *MACDResult
	Bollinger      *BollingerBands
	VolumeAnalysis *VolumeAnalysis

	GoldenCross bool // fresh golden-cross edge on this tick
	DeadCross   bool // fresh dead-cross edge on this tick
}
