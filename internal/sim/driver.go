// Package sim runs the deterministic, time-stepped simulation loop that
// sequences risk checks, indicator updates, cross detection, and order
// execution over pre-loaded quote history.
package sim

import (
	"fmt"
	"log"
	"time"

	"TrendBacktest/internal/config"
	"TrendBacktest/internal/cross"
	"TrendBacktest/internal/execution"
	"TrendBacktest/internal/indicator"
	"TrendBacktest/internal/ledger"
	"TrendBacktest/internal/model"
	"TrendBacktest/internal/risk"
)

// Indicator windows fixed by the strategy.
const (
	rsiPeriod       = 14
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
	bollingerPeriod = 20
	bollingerStdDev = 2.0
)

// Driver advances simulated time in fixed increments and owns every mutable
// structure of the run: ledger, cross states, series accumulators, and the
// transaction journal. It is strictly single-threaded; iteration order over
// groups and symbols is the configured order and is part of the observable
// behavior (shared balance makes earlier entries consume later ones'
// liquidity).
type Driver struct {
	cfg     *config.Config
	symbols map[string]model.SymbolData
	order   []string // grouped symbols in first-appearance order
	periods []int

	start    time.Time
	end      time.Time
	interval time.Duration

	ledger  *ledger.Ledger
	tracker *cross.Tracker
	risk    *risk.Manager
	engine  *execution.Engine
	ctx     *Context
}

// Result is everything a completed run produces for reporting and export.
type Result struct {
	Summary              model.Summary
	Transactions         []model.Transaction
	TransactionsBySymbol map[string][]model.Transaction
	SymbolSeries         map[string][]*model.TimeSeriesPoint
	GroupSeries          map[string][]*model.TimeSeriesPoint
}

// NewDriver validates the simulation window and wires the run's components.
// The symbols map holds pre-sorted ascending quote history; fetching it is
// the caller's concern.
func NewDriver(cfg *config.Config, symbols map[string]model.SymbolData) (*Driver, error) {
	start, err := time.Parse(time.RFC3339, cfg.Simulation.Start)
	if err != nil {
		return nil, fmt.Errorf("parse simulation.start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, cfg.Simulation.End)
	if err != nil {
		return nil, fmt.Errorf("parse simulation.end: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("simulation.end %s is before simulation.start %s", cfg.Simulation.End, cfg.Simulation.Start)
	}
	interval, err := ParseInterval(cfg.Simulation.Interval)
	if err != nil {
		return nil, fmt.Errorf("parse simulation.interval: %w", err)
	}

	var order []string
	inOrder := map[string]bool{}
	for _, g := range cfg.Groups {
		for _, sym := range g.Symbols {
			if !inOrder[sym] {
				inOrder[sym] = true
				order = append(order, sym)
			}
		}
	}

	l := ledger.New(cfg.Simulation.InitialBalance)
	r := risk.NewManager(cfg)
	return &Driver{
		cfg:      cfg,
		symbols:  symbols,
		order:    order,
		periods:  cfg.MAPeriods(),
		start:    start,
		end:      end,
		interval: interval,
		ledger:   l,
		tracker:  cross.NewTracker(),
		risk:     r,
		engine:   execution.NewEngine(cfg, l, r),
		ctx:      newContext(),
	}, nil
}

// Run executes the full time range and returns the run result. A run either
// completes or is not started; nothing inside the loop is fatal.
func (d *Driver) Run() *Result {
	log.Printf("[INFO] simulation %s -> %s step %s, %d groups, %d symbols, balance %.2f",
		d.cfg.Simulation.Start, d.cfg.Simulation.End, d.cfg.Simulation.Interval,
		len(d.cfg.Groups), len(d.order), d.cfg.Simulation.InitialBalance)

	for now := d.start; !now.After(d.end); now = now.Add(d.interval) {
		d.step(now)
	}

	res := d.summarize()
	log.Printf("[INFO] simulation done: assets %.2f, profit %.2f (%.2f%%), %d transactions",
		res.Summary.TotalAssets, res.Summary.TotalProfit, res.Summary.ReturnRate, res.Summary.TransactionCount)
	return res
}

// step processes one tick in the fixed order: risk checks, then per group the
// member metric updates and symbol-level trading, then the group aggregate,
// cross, and whitelist update.
func (d *Driver) step(now time.Time) {
	for _, sym := range d.order {
		d.ctx.symbolState(sym).advance(d.symbols[sym].Quotes, now)
	}

	d.checkRisk(now)

	seen := make(map[string]*model.TimeSeriesPoint)
	for gi := range d.cfg.Groups {
		g := &d.cfg.Groups[gi]
		for _, sym := range g.Symbols {
			if _, done := seen[sym]; done {
				continue // symbol shared with an earlier group this tick
			}
			pt := d.updateSymbol(sym, now)
			if pt == nil {
				continue // no quote visible yet; skip for this tick
			}
			seen[sym] = pt
			d.tradeSymbol(g.ID, sym, pt, now)
		}
		d.updateGroup(g, seen, now)
	}
}

// updateSymbol appends this tick's metric point for one symbol, or nil when
// no quote is visible yet.
func (d *Driver) updateSymbol(sym string, now time.Time) *model.TimeSeriesPoint {
	st := d.ctx.symbolState(sym)
	if st.lastVisible < 0 {
		return nil
	}
	q := d.symbols[sym].Quotes[st.lastVisible]

	changeRate := 0.0
	if open := d.sessionOpen(sym); open != 0 {
		changeRate = (q.Close - open) / open * 100
	}
	st.changeRates = append(st.changeRates, changeRate)

	strength := 1.0
	if meanVol := st.volumeSum / float64(len(st.volumes)); meanVol > 0 {
		strength = q.Volume / meanVol
	}

	pt := &model.TimeSeriesPoint{
		Time:           now,
		ChangeRate:     changeRate,
		VolumeStrength: strength,
		MA:             make(map[int]model.MAValue),
	}
	computeMAs(st.changeRates, d.periods, st.prevMA, pt)

	obv := st.obv
	obvSlope := indicator.OBVSlope(st.obv, st.prevOBV)
	st.prevOBV = st.obv
	pt.OBV = &obv
	pt.OBVSlope = &obvSlope

	if v, ok := indicator.RSI(st.closes, rsiPeriod); ok {
		pt.RSI = &v
	}
	if m, ok := indicator.MACD(st.closes, macdFast, macdSlow, macdSignal); ok {
		pt.MACD = &m
	}
	if b, ok := indicator.Bollinger(st.closes, bollingerPeriod, bollingerStdDev); ok {
		pt.Bollinger = &b
	}
	va := indicator.AnalyzeVolume(st.volumes, st.closes)
	pt.VolumeAnalysis = &va

	d.ctx.SymbolSeries[sym] = append(d.ctx.SymbolSeries[sym], pt)
	return pt
}

// tradeSymbol evaluates the symbol's cross state and runs entry or exit
// execution for this tick.
func (d *Driver) tradeSymbol(groupID, sym string, pt *model.TimeSeriesPoint, now time.Time) {
	res := d.tracker.Evaluate(sym, d.crossInput(pt))
	pt.GoldenCross = res.GoldenEdge
	pt.DeadCross = res.DeadEdge

	price, ok := d.priceOf(sym)
	if !ok {
		return
	}
	tc := execution.TickContext{
		Time:        now,
		Symbol:      sym,
		Price:       price,
		Point:       pt,
		GoldenEntry: res.GoldenEdge,
	}

	switch res.State {
	case cross.StateGolden:
		if !cross.GuardsPass(pt, d.cfg.Golden) {
			return
		}
		if !d.cfg.Features.OnlySymbolGoldenCross && !d.tracker.Buyable(groupID) {
			return // group has not confirmed the trend
		}
		if tx, reason := d.engine.TryBuy(tc); tx != nil {
			log.Printf("[INFO] BUY %s qty %.0f @ %.4f (fees %.4f, pyramiding=%v)",
				sym, tx.Quantity, tx.Price, tx.Fees, tx.Pyramiding)
		} else if res.GoldenEdge {
			log.Printf("[WARN] buy %s skipped: %s", sym, reason)
		}
	case cross.StateDead:
		if !d.cfg.Features.DeadCrossAdditionalSell || d.ledger.Holding(sym) == nil {
			return
		}
		if tx, reason := d.engine.Sell(tc, model.ReasonDeadCross, false); tx != nil {
			log.Printf("[INFO] SELL %s qty %.0f @ %.4f (%s, profit %.4f)",
				sym, tx.Quantity, tx.Price, tx.Reason, tx.Profit)
		} else {
			log.Printf("[WARN] sell %s skipped: %s", sym, reason)
		}
	}
}

// updateGroup aggregates this tick's member metrics, evaluates the group
// cross, and on a fresh group golden edge enters the top scored golden
// symbols.
func (d *Driver) updateGroup(g *model.Group, seen map[string]*model.TimeSeriesPoint, now time.Time) {
	var sumRate, sumStrength float64
	n := 0
	for _, sym := range g.Symbols {
		if pt := seen[sym]; pt != nil {
			sumRate += pt.ChangeRate
			sumStrength += pt.VolumeStrength
			n++
		}
	}
	if n == 0 {
		return // no member had data this tick
	}

	gs := d.ctx.groupState(g.ID)
	gs.changeRates = append(gs.changeRates, sumRate/float64(n))

	gpt := &model.TimeSeriesPoint{
		Time:           now,
		ChangeRate:     sumRate / float64(n),
		VolumeStrength: sumStrength / float64(n),
		MA:             make(map[int]model.MAValue),
	}
	computeMAs(gs.changeRates, d.periods, gs.prevMA, gpt)

	res := d.tracker.EvaluateGroup(g.ID, d.crossInput(gpt))
	gpt.GoldenCross = res.GoldenEdge
	gpt.DeadCross = res.DeadEdge
	d.ctx.GroupSeries[g.ID] = append(d.ctx.GroupSeries[g.ID], gpt)

	if res.GoldenEdge {
		log.Printf("[INFO] group %s golden cross, scanning %d members", g.ID, n)
		d.groupEntry(g, seen, now)
	}
}

// groupEntry greedily buys the top-N golden-state members by weighted score.
func (d *Driver) groupEntry(g *model.Group, seen map[string]*model.TimeSeriesPoint, now time.Time) {
	var cands []candidate
	for _, sym := range g.Symbols {
		pt := seen[sym]
		if pt == nil || d.tracker.State(sym) != cross.StateGolden {
			continue
		}
		if !cross.GuardsPass(pt, d.cfg.Golden) {
			continue
		}
		cands = append(cands, candidate{symbol: sym, point: pt, score: scoreCandidate(pt, d.cfg)})
	}
	rankCandidates(cands)

	bought := 0
	for _, c := range cands {
		if bought >= d.cfg.Buy.SymbolSize {
			break
		}
		price, ok := d.priceOf(c.symbol)
		if !ok {
			continue
		}
		tc := execution.TickContext{
			Time:        now,
			Symbol:      c.symbol,
			Price:       price,
			Point:       c.point,
			GoldenEntry: true,
		}
		if tx, _ := d.engine.TryBuy(tc); tx != nil {
			bought++
			log.Printf("[INFO] BUY %s qty %.0f @ %.4f (group %s entry, score %.4f)",
				c.symbol, tx.Quantity, tx.Price, g.ID, c.score)
		}
	}
}

// checkRisk runs protective exits for every held symbol before anything else
// touches the tick. Triggered exits always liquidate the full position.
func (d *Driver) checkRisk(now time.Time) {
	for _, sym := range d.ledger.Symbols() {
		price, ok := d.priceOf(sym)
		if !ok {
			continue
		}
		reason, hit := d.risk.Check(d.ledger.Holding(sym), price, d.tracker.State(sym), now)
		if !hit {
			continue
		}
		tc := execution.TickContext{Time: now, Symbol: sym, Price: price}
		if tx, skip := d.engine.Sell(tc, reason, true); tx != nil {
			log.Printf("[INFO] SELL %s qty %.0f @ %.4f (%s, profit %.4f)",
				sym, tx.Quantity, tx.Price, tx.Reason, tx.Profit)
		} else {
			log.Printf("[WARN] risk sell %s skipped: %s", sym, skip)
		}
	}
}

func (d *Driver) crossInput(pt *model.TimeSeriesPoint) cross.Input {
	var in cross.Input
	if f, ok := pt.MA[d.cfg.Golden.From]; ok {
		if s, ok := pt.MA[d.cfg.Golden.To]; ok {
			in.GoldenFast, in.GoldenSlow, in.GoldenOK = f.Value, s.Value, true
		}
	}
	if f, ok := pt.MA[d.cfg.Dead.From]; ok {
		if s, ok := pt.MA[d.cfg.Dead.To]; ok {
			in.DeadFast, in.DeadSlow, in.DeadOK = f.Value, s.Value, true
		}
	}
	return in
}

// priceOf returns the close of the newest visible quote for a symbol.
func (d *Driver) priceOf(sym string) (float64, bool) {
	st, ok := d.ctx.symbols[sym]
	if !ok || st.lastVisible < 0 {
		return 0, false
	}
	return d.symbols[sym].Quotes[st.lastVisible].Close, true
}

// sessionOpen returns the change-rate reference price: a configured override,
// the loaded session open, or the first bar's open.
func (d *Driver) sessionOpen(sym string) float64 {
	if open, ok := d.cfg.Data.SessionOpens[sym]; ok && open != 0 {
		return open
	}
	data := d.symbols[sym]
	if data.Open != 0 {
		return data.Open
	}
	if len(data.Quotes) > 0 {
		return data.Quotes[0].Open
	}
	return 0
}

func (d *Driver) summarize() *Result {
	txs := d.engine.Transactions()
	bySymbol := make(map[string][]model.Transaction)
	for _, tx := range txs {
		bySymbol[tx.Symbol] = append(bySymbol[tx.Symbol], tx)
	}

	initial := d.cfg.Simulation.InitialBalance
	total := d.ledger.TotalAssets(d.priceOf)
	profit := total - initial
	return &Result{
		Summary: model.Summary{
			FinalBalance:     d.ledger.Balance(),
			HoldingsValue:    total - d.ledger.Balance(),
			TotalAssets:      total,
			TotalProfit:      profit,
			ReturnRate:       profit / initial * 100,
			TransactionCount: len(txs),
		},
		Transactions:         txs,
		TransactionsBySymbol: bySymbol,
		SymbolSeries:         d.ctx.SymbolSeries,
		GroupSeries:          d.ctx.GroupSeries,
	}
}

// computeMAs fills the point's MA map for every configured period that has
// enough history, tracking slopes against the prior tick's values.
func computeMAs(series []float64, periods []int, prevMA map[int]float64, pt *model.TimeSeriesPoint) {
	idx := len(series) - 1
	for _, p := range periods {
		v, ok := indicator.MA(series, p, idx)
		if !ok {
			continue
		}
		prev, hasPrev := prevMA[p]
		pt.MA[p] = model.MAValue{Value: v, Slope: indicator.Slope(v, prev, hasPrev)}
		prevMA[p] = v
	}
}
