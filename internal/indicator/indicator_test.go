package indicator

import (
	"math"
	"testing"

	"TrendBacktest/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMA_UnavailableBelowWindow(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	for idx := 0; idx < 2; idx++ {
		if _, ok := MA(series, 3, idx); ok {
			t.Errorf("index %d: expected unavailable for period 3", idx)
		}
	}
	if _, ok := MA(series, 3, 2); !ok {
		t.Error("index 2: expected available for period 3")
	}
	if _, ok := MA(series, 3, 10); ok {
		t.Error("out-of-range index: expected unavailable")
	}
	if _, ok := MA(series, 0, 2); ok {
		t.Error("zero period: expected unavailable")
	}
}

func TestMA_TrailingMean(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		period int
		index  int
		want   float64
	}{
		{3, 2, 2},
		{3, 4, 4},
		{2, 1, 1.5},
		{5, 4, 3},
		{1, 0, 1},
	}
	for _, tt := range tests {
		got, ok := MA(series, tt.period, tt.index)
		if !ok {
			t.Errorf("MA(p=%d, i=%d): unexpectedly unavailable", tt.period, tt.index)
			continue
		}
		if !almostEqual(got, tt.want) {
			t.Errorf("MA(p=%d, i=%d) = %f, want %f", tt.period, tt.index, got, tt.want)
		}
	}
}

func TestSlope(t *testing.T) {
	if got := Slope(5, 0, false); got != 0 {
		t.Errorf("no prior value: slope = %f, want 0", got)
	}
	if got := Slope(12, 10, true); !almostEqual(got, 0.02) {
		t.Errorf("slope = %f, want 0.02", got)
	}
	if got := Slope(10, 12, true); !almostEqual(got, 0.02) {
		t.Errorf("falling slope = %f, want 0.02 (magnitude)", got)
	}
	if got := Slope(500, 100, true); got != 1 {
		t.Errorf("large delta: slope = %f, want capped at 1", got)
	}
}

func TestEMA(t *testing.T) {
	if got := EMA([]float64{1, 2}, 3); got != nil {
		t.Errorf("short input: expected nil, got %v", got)
	}

	series := []float64{1, 2, 3, 4, 5}
	out := EMA(series, 3)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	// First element is the SMA of the first 3 inputs.
	if !almostEqual(out[0], 2) {
		t.Errorf("out[0] = %f, want 2", out[0])
	}
	// mult = 0.5: (4-2)*0.5+2 = 3, (5-3)*0.5+3 = 4
	if !almostEqual(out[1], 3) || !almostEqual(out[2], 4) {
		t.Errorf("out[1:] = %v, want [3 4]", out[1:])
	}

	// A constant series stays constant.
	constant := EMA([]float64{7, 7, 7, 7, 7, 7}, 4)
	for i, v := range constant {
		if !almostEqual(v, 7) {
			t.Errorf("constant[%d] = %f, want 7", i, v)
		}
	}
}

func TestRSI_Availability(t *testing.T) {
	prices := []float64{1, 2, 3}
	if _, ok := RSI(prices, 3); ok {
		t.Error("period 3 needs 4 prices, expected unavailable")
	}
	if _, ok := RSI(append(prices, 4), 3); !ok {
		t.Error("4 prices with period 3: expected available")
	}
}

func TestRSI_AllGainsIsHundred(t *testing.T) {
	got, ok := RSI([]float64{1, 2, 3, 4, 5}, 4)
	if !ok {
		t.Fatal("expected available")
	}
	if got != 100 {
		t.Errorf("all-gains RSI = %f, want 100", got)
	}
}

func TestRSI_MixedMoves(t *testing.T) {
	// Trailing 3 deltas: -1, +1, -1 -> gain 1, loss 2 -> rs 0.5 -> 33.33.
	got, ok := RSI([]float64{1, 2, 1, 2, 1}, 3)
	if !ok {
		t.Fatal("expected available")
	}
	want := 100 - 100/1.5
	if !almostEqual(got, want) {
		t.Errorf("RSI = %f, want %f", got, want)
	}
	if got < 0 || got > 100 {
		t.Errorf("RSI %f out of [0, 100]", got)
	}
}

func TestMACD_Availability(t *testing.T) {
	prices := make([]float64, 34)
	if _, ok := MACD(prices, 12, 26, 9); ok {
		t.Error("34 prices: expected unavailable for 12/26/9")
	}
	prices = append(prices, 0)
	if _, ok := MACD(prices, 12, 26, 9); !ok {
		t.Error("35 prices: expected available for 12/26/9")
	}
}

func TestMACD_ConstantSeriesIsZero(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 50
	}
	m, ok := MACD(prices, 12, 26, 9)
	if !ok {
		t.Fatal("expected available")
	}
	if !almostEqual(m.MACD, 0) || !almostEqual(m.Signal, 0) || !almostEqual(m.Histogram, 0) {
		t.Errorf("constant series: got %+v, want all zero", m)
	}
}

func TestMACD_RisingSeriesIsBullish(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = float64(100 + i)
	}
	m, ok := MACD(prices, 12, 26, 9)
	if !ok {
		t.Fatal("expected available")
	}
	if m.MACD <= 0 {
		t.Errorf("rising series: MACD = %f, want positive", m.MACD)
	}
}

func TestBollinger(t *testing.T) {
	if _, ok := Bollinger([]float64{1, 2}, 3, 2); ok {
		t.Error("short input: expected unavailable")
	}

	// Zero-width band: %B pins to the middle.
	flat := []float64{5, 5, 5, 5}
	b, ok := Bollinger(flat, 4, 2)
	if !ok {
		t.Fatal("expected available")
	}
	if !almostEqual(b.Upper, 5) || !almostEqual(b.Lower, 5) || !almostEqual(b.PercentB, 0.5) {
		t.Errorf("flat series: got %+v, want bands at 5 and %%B 0.5", b)
	}

	// Population stddev over the trailing window.
	b, ok = Bollinger([]float64{9, 1, 2, 3, 4}, 4, 2)
	if !ok {
		t.Fatal("expected available")
	}
	if !almostEqual(b.Middle, 2.5) {
		t.Errorf("middle = %f, want 2.5", b.Middle)
	}
	std := math.Sqrt(1.25)
	if !almostEqual(b.Upper, 2.5+2*std) || !almostEqual(b.Lower, 2.5-2*std) {
		t.Errorf("bands = [%f, %f], want [%f, %f]", b.Lower, b.Upper, 2.5-2*std, 2.5+2*std)
	}
	if b.PercentB <= 0.5 {
		t.Errorf("last price above middle: %%B = %f, want > 0.5", b.PercentB)
	}
}

func TestAnalyzeVolume(t *testing.T) {
	short := []float64{1, 2, 3}
	if va := AnalyzeVolume(short, short); va.Trend != model.VolumeNeutral || va.Divergence {
		t.Errorf("short input: got %+v, want neutral/false", va)
	}

	flatPrices := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}

	surge := []float64{100, 100, 100, 100, 100, 150, 150, 150, 150, 150}
	if va := AnalyzeVolume(surge, flatPrices); va.Trend != model.VolumeIncreasing {
		t.Errorf("surging volume: trend = %v, want increasing", va.Trend)
	}

	fade := []float64{100, 100, 100, 100, 100, 70, 70, 70, 70, 70}
	if va := AnalyzeVolume(fade, flatPrices); va.Trend != model.VolumeDecreasing {
		t.Errorf("fading volume: trend = %v, want decreasing", va.Trend)
	}

	steady := []float64{100, 100, 100, 100, 100, 110, 110, 110, 110, 110}
	if va := AnalyzeVolume(steady, flatPrices); va.Trend != model.VolumeNeutral {
		t.Errorf("steady volume: trend = %v, want neutral", va.Trend)
	}

	// Price rising while volume fades is a divergence.
	rising := []float64{10, 10, 10, 10, 10, 20, 20, 20, 20, 20}
	if va := AnalyzeVolume(fade, rising); !va.Divergence {
		t.Error("rising price on fading volume: expected divergence")
	}
	if va := AnalyzeVolume(surge, rising); va.Divergence {
		t.Error("rising price on surging volume: expected no divergence")
	}
}
