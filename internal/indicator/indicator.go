// Package indicator provides the pure numeric functions the simulation is
// built on. Insufficient history is an expected condition: functions return
// ok=false instead of an error, and callers must treat that as "indicator not
// yet available", never as zero.
package indicator

import (
	"math"

	"TrendBacktest/internal/model"
)

// MA returns the simple moving average of the trailing period values ending
// at index. ok is false while index < period-1.
func MA(series []float64, period, index int) (float64, bool) {
	if period <= 0 || index >= len(series) || index < period-1 {
		return 0, false
	}
	sum := 0.0
	for i := index - period + 1; i <= index; i++ {
		sum += series[i]
	}
	return sum / float64(period), true
}

// Slope returns the bounded rate of change between a moving-average value and
// the prior tick's value for the same period: min(1, |delta|/100). Without a
// prior value the slope is 0.
func Slope(current float64, prev float64, hasPrev bool) float64 {
	if !hasPrev {
		return 0
	}
	d := math.Abs(current-prev) / 100
	if d > 1 {
		return 1
	}
	return d
}

// EMA returns the exponential moving average series. The first output element
// is the SMA of the first period inputs; the result has len(series)-period+1
// elements. Returns nil if the input is shorter than period.
func EMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}
	out := make([]float64, 0, len(series)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += series[i]
	}
	prev := sum / float64(period)
	out = append(out, prev)
	mult := 2.0 / float64(period+1)
	for i := period; i < len(series); i++ {
		prev = (series[i]-prev)*mult + prev
		out = append(out, prev)
	}
	return out
}

// RSI computes the relative strength index from gains and losses averaged
// over the trailing period deltas. ok is false below period+1 prices. A zero
// average loss yields 100, not NaN.
func RSI(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}
	var gain, loss float64
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// MACD computes the moving average convergence divergence from fast and slow
// EMAs aligned by their length offset, with an EMA signal line. ok is false
// below slow+signal prices.
func MACD(prices []float64, fast, slow, signal int) (model.MACDResult, bool) {
	if fast <= 0 || slow <= fast || signal <= 0 || len(prices) < slow+signal {
		return model.MACDResult{}, false
	}
	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)
	offset := slow - fast
	line := make([]float64, len(emaSlow))
	for i := range emaSlow {
		line[i] = emaFast[i+offset] - emaSlow[i]
	}
	signalLine := EMA(line, signal)
	if len(signalLine) == 0 {
		return model.MACDResult{}, false
	}
	macd := line[len(line)-1]
	sig := signalLine[len(signalLine)-1]
	return model.MACDResult{MACD: macd, Signal: sig, Histogram: macd - sig}, true
}

// Bollinger computes Bollinger Bands over the trailing period using the
// population standard deviation, plus the %B position of the last price.
// ok is false below period prices. A zero-width band puts %B at 0.5.
func Bollinger(prices []float64, period int, stdDevMult float64) (model.BollingerBands, bool) {
	if period <= 0 || len(prices) < period {
		return model.BollingerBands{}, false
	}
	window := prices[len(prices)-period:]
	sum := 0.0
	for _, p := range window {
		sum += p
	}
	middle := sum / float64(period)
	variance := 0.0
	for _, p := range window {
		d := p - middle
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(period))
	upper := middle + stdDevMult*stdDev
	lower := middle - stdDevMult*stdDev

	last := prices[len(prices)-1]
	percentB := 0.5
	if upper != lower {
		percentB = (last - lower) / (upper - lower)
	}
	return model.BollingerBands{Upper: upper, Middle: middle, Lower: lower, PercentB: percentB}, true
}

// AnalyzeVolume compares the mean volume of the last 5 bars against the prior
// 5 with a 20% band, and flags a price/volume divergence (price rising while
// volume is not increasing). Fewer than 10 points yields neutral/false.
func AnalyzeVolume(volumes, prices []float64) model.VolumeAnalysis {
	if len(volumes) < 10 || len(prices) < 10 {
		return model.VolumeAnalysis{Trend: model.VolumeNeutral}
	}
	recentVol := mean(volumes[len(volumes)-5:])
	priorVol := mean(volumes[len(volumes)-10 : len(volumes)-5])

	trend := model.VolumeNeutral
	switch {
	case recentVol > priorVol*1.2:
		trend = model.VolumeIncreasing
	case recentVol < priorVol*0.8:
		trend = model.VolumeDecreasing
	}

	priceRising := mean(prices[len(prices)-5:]) > mean(prices[len(prices)-10:len(prices)-5])
	return model.VolumeAnalysis{
		Trend:      trend,
		Divergence: priceRising && trend != model.VolumeIncreasing,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
