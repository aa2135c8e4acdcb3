package execution

import (
	"TrendBacktest/internal/model"
)

// passesFilters runs the buy filter chain in fixed order, short-circuiting on
// the first failure. Each filter is toggled by its feature flag, and filters
// whose indicator is not yet available pass rather than blocking the tick.
func (e *Engine) passesFilters(tc TickContext) (string, bool) {
	type filter struct {
		name    string
		enabled bool
		pass    func() bool
	}
	chain := []filter{
		{"time", e.cfg.Features.TimeFilter, func() bool { return e.passTimeWindow(tc) }},
		{"volume_strength", e.cfg.Features.VolumeStrengthFilter, func() bool { return e.passVolumeStrength(tc) }},
		{"slope", e.cfg.Features.SlopeFilter, func() bool { return e.passSlope(tc) }},
		{"ma_gap", e.cfg.Features.MaGapFilter, func() bool { return e.passMaGap(tc) }},
		{"obv_slope", e.cfg.Features.OBVFilter, func() bool { return e.passOBVSlope(tc) }},
		{"rsi", e.cfg.Features.RSIFilter, func() bool { return e.passRSI(tc) }},
		{"macd", e.cfg.Features.MACDFilter, func() bool { return e.passMACD(tc) }},
		{"bollinger", e.cfg.Features.BollingerBandsFilter, func() bool { return e.passBollinger(tc) }},
		{"volume_analysis", e.cfg.Features.VolumeAnalysisFilter, func() bool { return e.passVolumeAnalysis(tc) }},
	}
	for _, f := range chain {
		if f.enabled && !f.pass() {
			return f.name, false
		}
	}
	return "", true
}

func (e *Engine) passTimeWindow(tc TickContext) bool {
	hour := tc.Time.Hour()
	for _, excluded := range e.cfg.TimeFilter.ExcludeHours {
		if hour == excluded {
			return false
		}
	}
	return true
}

func (e *Engine) passVolumeStrength(tc TickContext) bool {
	return tc.Point.VolumeStrength >= e.cfg.Buy.MinVolumeStrength
}

func (e *Engine) passSlope(tc TickContext) bool {
	fast, ok := tc.Point.MA[e.cfg.Golden.From]
	if !ok {
		return true
	}
	return fast.Slope >= e.cfg.Buy.MinSlope
}

// passMaGap rejects overextended entries where the fast MA runs too far
// above the slow MA, measured in percent of the slow MA.
func (e *Engine) passMaGap(tc TickContext) bool {
	fast, okFast := tc.Point.MA[e.cfg.Golden.From]
	slow, okSlow := tc.Point.MA[e.cfg.Golden.To]
	if !okFast || !okSlow || slow.Value == 0 {
		return true
	}
	gap := (fast.Value - slow.Value) / slow.Value * 100
	return gap <= e.cfg.Buy.MaxMaGap
}

func (e *Engine) passOBVSlope(tc TickContext) bool {
	if tc.Point.OBVSlope == nil {
		return true
	}
	return *tc.Point.OBVSlope >= e.cfg.Buy.MinOBVSlope
}

func (e *Engine) passRSI(tc TickContext) bool {
	if tc.Point.RSI == nil {
		return true
	}
	return *tc.Point.RSI >= e.cfg.Buy.MinRSI && *tc.Point.RSI <= e.cfg.Buy.MaxRSI
}

func (e *Engine) passMACD(tc TickContext) bool {
	if tc.Point.MACD == nil || !e.cfg.Buy.MACDBullish {
		return true
	}
	return tc.Point.MACD.MACD > tc.Point.MACD.Signal
}

func (e *Engine) passBollinger(tc TickContext) bool {
	b := tc.Point.Bollinger
	if b == nil {
		return true
	}
	if b.PercentB < e.cfg.Buy.MinBollingerPercentB || b.PercentB > e.cfg.Buy.MaxBollingerPercentB {
		return false
	}
	switch e.cfg.Buy.BollingerPosition {
	case "below_middle":
		return tc.Price < b.Middle
	case "above_middle":
		return tc.Price > b.Middle
	}
	return true
}

func (e *Engine) passVolumeAnalysis(tc TickContext) bool {
	va := tc.Point.VolumeAnalysis
	if va == nil {
		return true
	}
	if e.cfg.Buy.VolumeTrendRequired && va.Trend != model.VolumeIncreasing {
		return false
	}
	if e.cfg.Buy.AvoidPriceVolumeDivergence && va.Divergence {
		return false
	}
	return true
}
