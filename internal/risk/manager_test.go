package risk

import (
	"testing"
	"time"

	"TrendBacktest/internal/config"
	"TrendBacktest/internal/cross"
	"TrendBacktest/internal/model"
)

var now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Features: config.FeatureFlags{
			StopLoss:                  true,
			TakeProfit:                true,
			TrailingStop:              true,
			ConsecutiveLossProtection: true,
		},
		Sell: config.SellConfig{
			StopLoss:            -0.05,
			TakeProfit:          0.1,
			TrailingStopPercent: 0.03,
		},
		Risk: config.RiskConfig{MaxConsecutiveLosses: 3},
	}
}

func holding(avg, max float64) *model.Holding {
	return &model.Holding{Quantity: 100, AvgPrice: avg, MaxPrice: max, BuyTime: now.Add(-24 * time.Hour)}
}

func TestCheck_SameTickSkipped(t *testing.T) {
	m := NewManager(testConfig())
	h := holding(100, 100)
	h.BuyTime = now

	if _, hit := m.Check(h, 50, cross.StateDead, now); hit {
		t.Error("position bought this tick must not be liquidated")
	}
}

func TestCheck_StopLossOnlyWhileDead(t *testing.T) {
	m := NewManager(testConfig())

	if _, hit := m.Check(holding(100, 100), 90, cross.StateGolden, now); hit {
		t.Error("stop-loss fired outside DEAD state")
	}
	if _, hit := m.Check(holding(100, 100), 90, cross.StateNone, now); hit {
		t.Error("stop-loss fired outside DEAD state")
	}

	reason, hit := m.Check(holding(100, 100), 90, cross.StateDead, now)
	if !hit || reason != model.ReasonStopLoss {
		t.Errorf("got (%v, %v), want stop-loss hit", reason, hit)
	}

	// -4% is above the -5% threshold.
	if _, hit := m.Check(holding(100, 100), 96, cross.StateDead, now); hit {
		t.Error("stop-loss fired above threshold")
	}
}

func TestCheck_TakeProfitAnyState(t *testing.T) {
	m := NewManager(testConfig())

	for _, state := range []cross.State{cross.StateNone, cross.StateGolden, cross.StateDead} {
		reason, hit := m.Check(holding(100, 100), 111, state, now)
		if !hit || reason != model.ReasonTakeProfit {
			t.Errorf("state %v: got (%v, %v), want take-profit hit", state, reason, hit)
		}
	}
	if _, hit := m.Check(holding(100, 100), 109, cross.StateNone, now); hit {
		t.Error("take-profit fired below threshold")
	}
}

func TestCheck_TrailingStopOnlyWhileDead(t *testing.T) {
	cfg := testConfig()
	cfg.Features.TakeProfit = false
	m := NewManager(cfg)

	// Drawdown from peak 120 to 116 is 3.33%.
	if _, hit := m.Check(holding(100, 120), 116, cross.StateGolden, now); hit {
		t.Error("trailing stop fired outside DEAD state")
	}
	reason, hit := m.Check(holding(100, 120), 116, cross.StateDead, now)
	if !hit || reason != model.ReasonTrailingStop {
		t.Errorf("got (%v, %v), want trailing-stop hit", reason, hit)
	}
	// 2.5% drawdown stays open.
	if _, hit := m.Check(holding(100, 120), 117, cross.StateDead, now); hit {
		t.Error("trailing stop fired below threshold")
	}
}

func TestCheck_AdvancesMaxPrice(t *testing.T) {
	cfg := testConfig()
	cfg.Features.TakeProfit = false
	m := NewManager(cfg)

	h := holding(100, 120)
	if _, hit := m.Check(h, 130, cross.StateDead, now); hit {
		t.Error("new high must not trigger an exit")
	}
	if h.MaxPrice != 130 {
		t.Errorf("max price = %f, want 130", h.MaxPrice)
	}
}

func TestCheck_DisabledFeaturesNeverFire(t *testing.T) {
	cfg := testConfig()
	cfg.Features.StopLoss = false
	cfg.Features.TakeProfit = false
	cfg.Features.TrailingStop = false
	m := NewManager(cfg)

	if _, hit := m.Check(holding(100, 200), 50, cross.StateDead, now); hit {
		t.Error("exit fired with all protections disabled")
	}
}

func TestRecordResult_CircuitBreaker(t *testing.T) {
	m := NewManager(testConfig())

	m.RecordResult(-10)
	m.RecordResult(-10)
	if m.Paused() {
		t.Fatal("paused before reaching the loss limit")
	}
	m.RecordResult(-10)
	if !m.Paused() {
		t.Fatal("not paused at the loss limit")
	}
	if m.ConsecutiveLosses() != 3 {
		t.Errorf("consecutive losses = %d, want 3", m.ConsecutiveLosses())
	}

	// Sells keep executing while paused; a winning one lifts the pause.
	m.RecordResult(5)
	if m.Paused() {
		t.Error("profit should reset the breaker")
	}
	if m.ConsecutiveLosses() != 0 {
		t.Errorf("consecutive losses = %d, want 0 after profit", m.ConsecutiveLosses())
	}

	// Break-even trades leave the streak untouched.
	m.RecordResult(-10)
	m.RecordResult(0)
	if m.ConsecutiveLosses() != 1 {
		t.Errorf("consecutive losses = %d, want 1 after break-even", m.ConsecutiveLosses())
	}
}

func TestPaused_GatedByFeatureFlag(t *testing.T) {
	cfg := testConfig()
	cfg.Features.ConsecutiveLossProtection = false
	m := NewManager(cfg)

	for i := 0; i < 5; i++ {
		m.RecordResult(-10)
	}
	if m.Paused() {
		t.Error("pause must be inert with the protection flag off")
	}
}
