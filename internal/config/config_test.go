package config

import (
	"os"
	"path/filepath"
	"testing"

	"TrendBacktest/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ParsesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
simulation:
  start: "2024-01-02T09:00:00Z"
  end: "2024-06-28T15:00:00Z"
groups:
  - id: tech
    label: Technology
    symbols: [AAPL, MSFT]
buy:
  stock_rate: 0.2
golden_cross:
  from: 5
  to: 20
  under: [60]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Simulation.Start != "2024-01-02T09:00:00Z" {
		t.Errorf("start = %q", cfg.Simulation.Start)
	}
	if len(cfg.Groups) != 1 || cfg.Groups[0].ID != "tech" || len(cfg.Groups[0].Symbols) != 2 {
		t.Errorf("groups = %+v", cfg.Groups)
	}
	if cfg.Buy.StockRate != 0.2 {
		t.Errorf("buy.stock_rate = %f, want explicit 0.2", cfg.Buy.StockRate)
	}

	// Everything unspecified falls back to defaults.
	if cfg.Simulation.Interval != "1d" {
		t.Errorf("interval default = %q, want 1d", cfg.Simulation.Interval)
	}
	if cfg.Simulation.InitialBalance != 1_000_000 {
		t.Errorf("initial balance default = %f", cfg.Simulation.InitialBalance)
	}
	if cfg.TradeFees.Buy != 0.001 || cfg.TradeFees.Sell != 0.001 {
		t.Errorf("fee defaults = %+v", cfg.TradeFees)
	}
	if cfg.Sell.StockRate != 0.5 || cfg.Sell.StopLoss != -0.05 || cfg.Sell.TakeProfit != 0.1 {
		t.Errorf("sell defaults = %+v", cfg.Sell)
	}
	if cfg.Buy.MinRSI != 30 || cfg.Buy.MaxRSI != 70 {
		t.Errorf("rsi defaults = [%f, %f]", cfg.Buy.MinRSI, cfg.Buy.MaxRSI)
	}
	if cfg.Risk.MaxConsecutiveLosses != 3 {
		t.Errorf("max losses default = %d", cfg.Risk.MaxConsecutiveLosses)
	}
	if cfg.Weights.Slope != 0.4 || cfg.Weights.Volume != 0.3 || cfg.Weights.MaGap != 0.3 {
		t.Errorf("weight defaults = %+v", cfg.Weights)
	}

	// The dead pair mirrors the golden pair when unset.
	if cfg.Dead.From != 5 || cfg.Dead.To != 20 {
		t.Errorf("dead pair = %+v, want mirrored 5/20", cfg.Dead)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Golden.From != 5 || cfg.Golden.To != 20 {
		t.Errorf("golden defaults = %+v", cfg.Golden)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "simulation: [not: a: map")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
simulation:
  initial_balance: 42
data:
  quotes_dir: from-file
`)
	t.Setenv("QUOTES_DIR", "from-env")
	t.Setenv("INITIAL_BALANCE", "500000")
	t.Setenv("WATCH_CRON", "0 0 * * * *")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Data.QuotesDir != "from-env" {
		t.Errorf("quotes dir = %q, want env override", cfg.Data.QuotesDir)
	}
	if cfg.Simulation.InitialBalance != 500_000 {
		t.Errorf("initial balance = %f, want env override", cfg.Simulation.InitialBalance)
	}
	if cfg.Schedule.WatchCron != "0 0 * * * *" {
		t.Errorf("watch cron = %q", cfg.Schedule.WatchCron)
	}
}

func validConfig() *Config {
	cfg := &Config{
		Simulation: SimulationConfig{Start: "2024-01-01T00:00:00Z", End: "2024-02-01T00:00:00Z"},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing window", func(c *Config) { c.Simulation.Start = "" }},
		{"non-positive balance", func(c *Config) { c.Simulation.InitialBalance = -1 }},
		{"fee out of range", func(c *Config) { c.TradeFees.Buy = 1.5 }},
		{"buy rate out of range", func(c *Config) { c.Buy.StockRate = 0 }},
		{"sell rate out of range", func(c *Config) { c.Sell.StockRate = 1.1 }},
		{"positive stop loss", func(c *Config) { c.Sell.StopLoss = 0.05 }},
		{"trailing stop out of range", func(c *Config) { c.Sell.TrailingStopPercent = 1 }},
		{"zero loss limit", func(c *Config) { c.Risk.MaxConsecutiveLosses = 0 }},
		{"inverted golden pair", func(c *Config) { c.Golden = CrossPair{From: 20, To: 5} }},
		{"non-positive under period", func(c *Config) { c.Golden.Under = []int{0} }},
		{"unknown bollinger position", func(c *Config) { c.Buy.BollingerPosition = "sideways" }},
		{"exclude hour out of range", func(c *Config) { c.TimeFilter.ExcludeHours = []int{24} }},
		{"group without id", func(c *Config) { c.Groups = []model.Group{{Symbols: []string{"A"}}} }},
		{"group without symbols", func(c *Config) { c.Groups = []model.Group{{ID: "g"}} }},
	}
	for _, tt := range tests {
		cfg := validConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestMAPeriods(t *testing.T) {
	cfg := &Config{
		Golden: CrossPair{From: 5, To: 20, Under: []int{60, 5}},
		Dead:   CrossPair{From: 10, To: 20},
	}
	got := cfg.MAPeriods()
	want := []int{5, 10, 20, 60}
	if len(got) != len(want) {
		t.Fatalf("periods = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("periods = %v, want %v (sorted, distinct)", got, want)
		}
	}
}
