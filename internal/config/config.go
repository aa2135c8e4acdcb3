package config

import (
	"fmt"
	"os"
	"strconv"

	"TrendBacktest/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds the full configuration for one backtest run. It is resolved
// once at load time and never mutated while a simulation is running.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Data       DataConfig       `yaml:"data"`
	Groups     []model.Group    `yaml:"groups"`
	TradeFees  FeeConfig        `yaml:"trade_fees"`
	Features   FeatureFlags     `yaml:"features"`
	Buy        BuyConfig        `yaml:"buy"`
	Sell       SellConfig       `yaml:"sell"`
	TimeFilter TimeFilterConfig `yaml:"time_filter"`
	Risk       RiskConfig       `yaml:"risk_management"`
	Weights    ScoreWeights     `yaml:"score_weights"`
	Golden     CrossPair        `yaml:"golden_cross"`
	Dead       CrossPair        `yaml:"dead_cross"`
	Database   DatabaseConfig   `yaml:"database"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
}

// SimulationConfig bounds the simulated time range.
type SimulationConfig struct {
	Start          string  `yaml:"start"` // RFC3339
	End            string  `yaml:"end"`   // RFC3339
	Interval       string  `yaml:"interval"`
	InitialBalance float64 `yaml:"initial_balance"`
}

// DataConfig locates the pre-loaded quote files.
type DataConfig struct {
	QuotesDir    string             `yaml:"quotes_dir"`
	SessionOpens map[string]float64 `yaml:"session_opens"` // optional per-symbol override
}

// FeeConfig holds flat fee fractions applied to order notionals.
type FeeConfig struct {
	Buy  float64 `yaml:"buy"`
	Sell float64 `yaml:"sell"`
}

// FeatureFlags is the closed set of strategy toggles.
type FeatureFlags struct {
	Pyramiding                bool `yaml:"pyramiding"`
	StopLoss                  bool `yaml:"stop_loss"`
	TakeProfit                bool `yaml:"take_profit"`
	TrailingStop              bool `yaml:"trailing_stop"`
	DeadCrossAdditionalSell   bool `yaml:"dead_cross_additional_sell"`
	TimeFilter                bool `yaml:"time_filter"`
	MaGapFilter               bool `yaml:"ma_gap_filter"`
	ConsecutiveLossProtection bool `yaml:"consecutive_loss_protection"`
	PositionSizing            bool `yaml:"position_sizing"`
	VolumeStrengthFilter      bool `yaml:"volume_strength_filter"`
	SlopeFilter               bool `yaml:"slope_filter"`
	OBVFilter                 bool `yaml:"obv_filter"`
	RSIFilter                 bool `yaml:"rsi_filter"`
	MACDFilter                bool `yaml:"macd_filter"`
	BollingerBandsFilter      bool `yaml:"bollinger_bands_filter"`
	VolumeAnalysisFilter      bool `yaml:"volume_analysis_filter"`
	OnlySymbolGoldenCross     bool `yaml:"only_symbol_golden_cross"`
}

// BuyConfig holds entry sizing and filter thresholds.
type BuyConfig struct {
	StockRate                  float64 `yaml:"stock_rate"` // fraction of balance per entry
	MinVolumeStrength          float64 `yaml:"min_volume_strength"`
	MinSlope                   float64 `yaml:"min_slope"`
	MaxMaGap                   float64 `yaml:"max_ma_gap"` // percent of slow MA
	MinOBVSlope                float64 `yaml:"min_obv_slope"`
	MinRSI                     float64 `yaml:"min_rsi"`
	MaxRSI                     float64 `yaml:"max_rsi"`
	MACDBullish                bool    `yaml:"macd_bullish"`
	BollingerPosition          string  `yaml:"bollinger_position"` // "", "below_middle", "above_middle"
	MinBollingerPercentB       float64 `yaml:"min_bollinger_percent_b"`
	MaxBollingerPercentB       float64 `yaml:"max_bollinger_percent_b"`
	VolumeTrendRequired        bool    `yaml:"volume_trend_required"`
	AvoidPriceVolumeDivergence bool    `yaml:"avoid_price_volume_divergence"`
	SymbolSize                 int     `yaml:"symbol_size"` // top-N on group golden cross
}

// SellConfig holds exit sizing and risk thresholds.
type SellConfig struct {
	StockRate           float64 `yaml:"stock_rate"` // fraction of holding per dead-cross sell
	StopLoss            float64 `yaml:"stop_loss"`  // negative return fraction, e.g. -0.05
	TakeProfit          float64 `yaml:"take_profit"`
	TrailingStopPercent float64 `yaml:"trailing_stop_percent"`
	SymbolSize          int     `yaml:"symbol_size"`
}

// TimeFilterConfig excludes entries during the listed hours (0-23).
type TimeFilterConfig struct {
	ExcludeHours []int `yaml:"exclude_hours"`
}

// RiskConfig holds circuit-breaker settings.
type RiskConfig struct {
	MaxConsecutiveLosses int `yaml:"max_consecutive_losses"`
}

// ScoreWeights weight the candidate score used for group-level top-N entries.
type ScoreWeights struct {
	Slope  float64 `yaml:"slope"`
	Volume float64 `yaml:"volume"`
	MaGap  float64 `yaml:"ma_gap"`
}

// CrossPair configures a moving-average cross. Under and MinSlope apply only
// to the golden pair, as entry guards.
type CrossPair struct {
	From     int     `yaml:"from"`
	To       int     `yaml:"to"`
	Under    []int   `yaml:"under"`
	MinSlope float64 `yaml:"min_slope"`
}

// DatabaseConfig locates the optional run recorder.
type DatabaseConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// ScheduleConfig enables cron-driven re-runs.
type ScheduleConfig struct {
	WatchCron string `yaml:"watch_cron"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("QUOTES_DIR"); v != "" {
		cfg.Data.QuotesDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("INITIAL_BALANCE"); v != "" {
		if b, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.InitialBalance = b
		}
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Schedule.WatchCron = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Simulation.Interval == "" {
		c.Simulation.Interval = "1d"
	}
	if c.Simulation.InitialBalance == 0 {
		c.Simulation.InitialBalance = 1_000_000
	}
	if c.Data.QuotesDir == "" {
		c.Data.QuotesDir = "data/quotes"
	}
	if c.TradeFees.Buy == 0 {
		c.TradeFees.Buy = 0.001
	}
	if c.TradeFees.Sell == 0 {
		c.TradeFees.Sell = 0.001
	}
	if c.Buy.StockRate == 0 {
		c.Buy.StockRate = 0.1
	}
	if c.Buy.MaxRSI == 0 {
		c.Buy.MinRSI = 30
		c.Buy.MaxRSI = 70
	}
	if c.Buy.MaxBollingerPercentB == 0 {
		c.Buy.MaxBollingerPercentB = 0.8
	}
	if c.Buy.SymbolSize == 0 {
		c.Buy.SymbolSize = 3
	}
	if c.Sell.StockRate == 0 {
		c.Sell.StockRate = 0.5
	}
	if c.Sell.StopLoss == 0 {
		c.Sell.StopLoss = -0.05
	}
	if c.Sell.TakeProfit == 0 {
		c.Sell.TakeProfit = 0.1
	}
	if c.Sell.TrailingStopPercent == 0 {
		c.Sell.TrailingStopPercent = 0.03
	}
	if c.Risk.MaxConsecutiveLosses == 0 {
		c.Risk.MaxConsecutiveLosses = 3
	}
	if c.Weights == (ScoreWeights{}) {
		c.Weights = ScoreWeights{Slope: 0.4, Volume: 0.3, MaGap: 0.3}
	}
	if c.Golden.From == 0 {
		c.Golden.From = 5
	}
	if c.Golden.To == 0 {
		c.Golden.To = 20
	}
	if c.Dead.From == 0 {
		c.Dead.From = c.Golden.From
	}
	if c.Dead.To == 0 {
		c.Dead.To = c.Golden.To
	}
}

// Validate checks that the configuration is internally consistent. Malformed
// configuration is a programming error caught here, never mid-run.
func (c *Config) Validate() error {
	if c.Simulation.Start == "" || c.Simulation.End == "" {
		return fmt.Errorf("simulation.start and simulation.end are required")
	}
	if c.Simulation.InitialBalance <= 0 {
		return fmt.Errorf("simulation.initial_balance must be positive")
	}
	if c.TradeFees.Buy < 0 || c.TradeFees.Buy >= 1 || c.TradeFees.Sell < 0 || c.TradeFees.Sell >= 1 {
		return fmt.Errorf("trade_fees must be fractions in [0, 1)")
	}
	if c.Buy.StockRate <= 0 || c.Buy.StockRate > 1 {
		return fmt.Errorf("buy.stock_rate must be in (0, 1]")
	}
	if c.Sell.StockRate <= 0 || c.Sell.StockRate > 1 {
		return fmt.Errorf("sell.stock_rate must be in (0, 1]")
	}
	if c.Sell.StopLoss >= 0 {
		return fmt.Errorf("sell.stop_loss must be a negative return fraction")
	}
	if c.Sell.TrailingStopPercent <= 0 || c.Sell.TrailingStopPercent >= 1 {
		return fmt.Errorf("sell.trailing_stop_percent must be in (0, 1)")
	}
	if c.Risk.MaxConsecutiveLosses < 1 {
		return fmt.Errorf("risk_management.max_consecutive_losses must be >= 1")
	}
	for _, pair := range []struct {
		name string
		p    CrossPair
	}{{"golden_cross", c.Golden}, {"dead_cross", c.Dead}} {
		if pair.p.From <= 0 || pair.p.To <= 0 {
			return fmt.Errorf("%s periods must be positive", pair.name)
		}
		if pair.p.From >= pair.p.To {
			return fmt.Errorf("%s: from period %d must be shorter than to period %d", pair.name, pair.p.From, pair.p.To)
		}
		for _, u := range pair.p.Under {
			if u <= 0 {
				return fmt.Errorf("%s.under periods must be positive", pair.name)
			}
		}
	}
	switch c.Buy.BollingerPosition {
	case "", "below_middle", "above_middle":
	default:
		return fmt.Errorf("buy.bollinger_position must be empty, below_middle, or above_middle")
	}
	for _, h := range c.TimeFilter.ExcludeHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("time_filter.exclude_hours entries must be 0-23, got %d", h)
		}
	}
	for _, g := range c.Groups {
		if g.ID == "" {
			return fmt.Errorf("group id is required")
		}
		if len(g.Symbols) == 0 {
			return fmt.Errorf("group %s has no symbols", g.ID)
		}
	}
	return nil
}

// MAPeriods returns the sorted distinct moving-average periods the configured
// cross pairs and guards require.
func (c *Config) MAPeriods() []int {
	seen := map[int]bool{}
	var periods []int
	add := func(p int) {
		if p > 0 && !seen[p] {
			seen[p] = true
			periods = append(periods, p)
		}
	}
	add(c.Golden.From)
	add(c.Golden.To)
	for _, u := range c.Golden.Under {
		add(u)
	}
	add(c.Dead.From)
	add(c.Dead.To)
	for i := 1; i < len(periods); i++ {
		for j := i; j > 0 && periods[j-1] > periods[j]; j-- {
			periods[j-1], periods[j] = periods[j], periods[j-1]
		}
	}
	return periods
}
