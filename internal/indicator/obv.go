package indicator

import "math"

// OBVStep advances a running on-balance volume by one bar: volume is added on
// an up-close, subtracted on a down-close, and held on an equal close.
func OBVStep(obv, prevClose, close, volume float64) float64 {
	switch {
	case close > prevClose:
		return obv + volume
	case close < prevClose:
		return obv - volume
	default:
		return obv
	}
}

// OBVSlope returns the relative change between consecutive OBV values. A zero
// previous OBV yields 0 rather than dividing by zero.
func OBVSlope(obv, prevOBV float64) float64 {
	if prevOBV == 0 {
		return 0
	}
	return (obv - prevOBV) / math.Abs(prevOBV)
}
