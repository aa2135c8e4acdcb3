package sim

import (
	"time"

	"TrendBacktest/internal/indicator"
	"TrendBacktest/internal/model"
)

// symbolState accumulates the incremental per-symbol series a run builds up.
// All of it is owned by the driver; nothing outside the simulation mutates it.
type symbolState struct {
	cursor      int       // index of the first not-yet-visible quote
	lastVisible int       // index of the newest visible quote, -1 before data
	closes      []float64 // closes of visible quotes
	volumes     []float64 // volumes of visible quotes
	volumeSum   float64
	changeRates []float64 // per-tick change-rate series the MAs run over

	obv       float64
	prevOBV   float64
	obvSeeded bool
	prevClose float64

	prevMA map[int]float64 // last tick's MA values, for slopes
}

// groupState accumulates the per-group aggregate series.
type groupState struct {
	changeRates []float64
	prevMA      map[int]float64
}

// Context is the mutable state of one simulation run, created at start and
// threaded explicitly through every tick.
type Context struct {
	SymbolSeries map[string][]*model.TimeSeriesPoint
	GroupSeries  map[string][]*model.TimeSeriesPoint

	symbols map[string]*symbolState
	groups  map[string]*groupState
}

func newContext() *Context {
	return &Context{
		SymbolSeries: make(map[string][]*model.TimeSeriesPoint),
		GroupSeries:  make(map[string][]*model.TimeSeriesPoint),
		symbols:      make(map[string]*symbolState),
		groups:       make(map[string]*groupState),
	}
}

func (c *Context) symbolState(symbol string) *symbolState {
	st, ok := c.symbols[symbol]
	if !ok {
		st = &symbolState{lastVisible: -1, prevMA: make(map[int]float64)}
		c.symbols[symbol] = st
	}
	return st
}

func (c *Context) groupState(id string) *groupState {
	st, ok := c.groups[id]
	if !ok {
		st = &groupState{prevMA: make(map[int]float64)}
		c.groups[id] = st
	}
	return st
}

// advance makes all quotes with timestamp <= now visible and folds the newly
// visible bars into the running close/volume/OBV accumulators. The bar being
// evaluated contributes its own close; this same-bar boundary is part of the
// strategy's semantics and must not be widened to a one-bar lag.
func (st *symbolState) advance(quotes []model.Quote, now time.Time) {
	for st.cursor < len(quotes) && !quotes[st.cursor].Time.After(now) {
		q := quotes[st.cursor]
		if st.obvSeeded {
			st.obv = indicator.OBVStep(st.obv, st.prevClose, q.Close, q.Volume)
		} else {
			st.obv = 0 // OBV starts at zero on the first bar of the series
			st.obvSeeded = true
		}
		st.prevClose = q.Close
		st.closes = append(st.closes, q.Close)
		st.volumes = append(st.volumes, q.Volume)
		st.volumeSum += q.Volume
		st.lastVisible = st.cursor
		st.cursor++
	}
}
