package sim

import (
	"testing"

	"TrendBacktest/internal/config"
	"TrendBacktest/internal/model"
)

func TestScoreCandidate(t *testing.T) {
	cfg := &config.Config{
		Weights: config.ScoreWeights{Slope: 0.4, Volume: 0.3, MaGap: 0.3},
		Golden:  config.CrossPair{From: 5, To: 20},
	}
	pt := &model.TimeSeriesPoint{
		VolumeStrength: 2.0,
		MA: map[int]model.MAValue{
			5:  {Value: 102, Slope: 0.5},
			20: {Value: 100},
		},
	}
	// 0.3*2.0 + 0.4*0.5 + 0.3*2.0 = 1.4
	got := scoreCandidate(pt, cfg)
	if got < 1.399999 || got > 1.400001 {
		t.Errorf("score = %f, want 1.4", got)
	}

	// Missing MAs drop their terms instead of scoring zero values.
	bare := &model.TimeSeriesPoint{VolumeStrength: 2.0, MA: map[int]model.MAValue{}}
	if got := scoreCandidate(bare, cfg); got < 0.599999 || got > 0.600001 {
		t.Errorf("bare score = %f, want 0.6", got)
	}
}

func TestRankCandidates_StableDescending(t *testing.T) {
	cands := []candidate{
		{symbol: "AAA", score: 0.5},
		{symbol: "BBB", score: 1.5},
		{symbol: "CCC", score: 0.5},
		{symbol: "DDD", score: 2.0},
	}
	rankCandidates(cands)

	want := []string{"DDD", "BBB", "AAA", "CCC"}
	for i, sym := range want {
		if cands[i].symbol != sym {
			t.Fatalf("rank %d = %s, want %s (ties must keep input order)", i, cands[i].symbol, sym)
		}
	}
}
