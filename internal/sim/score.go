package sim

import (
	"sort"

	"TrendBacktest/internal/config"
	"TrendBacktest/internal/model"
)

// candidate is a golden-state symbol considered for a group-level entry.
type candidate struct {
	symbol string
	point  *model.TimeSeriesPoint
	score  float64
}

// scoreCandidate weights the fast-MA slope, volume strength, and MA gap into
// a single entry score. Greedy top-N selection on this score is part of the
// strategy's observable behavior; it is deliberately not a global optimizer.
func scoreCandidate(pt *model.TimeSeriesPoint, cfg *config.Config) float64 {
	w := cfg.Weights
	score := w.Volume * pt.VolumeStrength

	if fast, ok := pt.MA[cfg.Golden.From]; ok {
		score += w.Slope * fast.Slope
		if slow, ok := pt.MA[cfg.Golden.To]; ok && slow.Value != 0 {
			gap := (fast.Value - slow.Value) / slow.Value * 100
			score += w.MaGap * gap
		}
	}
	return score
}

// rankCandidates sorts candidates by descending score, keeping the original
// iteration order on ties so repeated runs pick the same symbols.
func rankCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})
}
