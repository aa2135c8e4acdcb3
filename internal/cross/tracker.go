// Package cross tracks the trend state of symbols and groups from moving
// average pairs, and maintains the group-level buyable whitelist.
package cross

import (
	"TrendBacktest/internal/config"
	"TrendBacktest/internal/model"
)

// State is the trend state of one entity. States are re-evaluated fresh
// every tick; they are not sticky across missing data.
type State int

const (
	StateNone State = iota
	StateGolden
	StateDead
)

func (s State) String() string {
	switch s {
	case StateGolden:
		return "GOLDEN"
	case StateDead:
		return "DEAD"
	default:
		return "NONE"
	}
}

// Input carries the moving-average samples a transition is evaluated from.
// The dead pair dominates: fast below slow is DEAD regardless of the golden
// pair. A pair with ok=false is skipped for the tick.
type Input struct {
	GoldenFast float64
	GoldenSlow float64
	GoldenOK   bool
	DeadFast   float64
	DeadSlow   float64
	DeadOK     bool
}

// Result reports the evaluated state and whether this tick is a fresh edge.
type Result struct {
	State      State
	GoldenEdge bool
	DeadEdge   bool
}

// Tracker holds per-entity states and the group buyable whitelist. One
// tracker instance serves both symbol and group entities; group IDs never
// collide with symbol names in practice, and the whitelist is only touched
// through EvaluateGroup.
type Tracker struct {
	states  map[string]State
	buyable map[string]bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		states:  make(map[string]State),
		buyable: make(map[string]bool),
	}
}

// State returns the last evaluated state for an entity.
func (t *Tracker) State(id string) State { return t.states[id] }

// Evaluate applies the transition rule for one entity and returns the new
// state plus edge flags. Dead-cross is checked first by design of the
// strategy: it wins over a simultaneously satisfied golden condition.
func (t *Tracker) Evaluate(id string, in Input) Result {
	prev := t.states[id]

	next := StateNone
	switch {
	case in.DeadOK && in.DeadFast < in.DeadSlow:
		next = StateDead
	case in.GoldenOK && in.GoldenFast > in.GoldenSlow:
		next = StateGolden
	}
	t.states[id] = next

	return Result{
		State:      next,
		GoldenEdge: next == StateGolden && prev != StateGolden,
		DeadEdge:   next == StateDead && prev != StateDead,
	}
}

// EvaluateGroup evaluates a group entity and updates the buyable whitelist:
// a NONE/DEAD to GOLDEN edge adds the group, a GOLDEN to DEAD edge removes
// it.
func (t *Tracker) EvaluateGroup(groupID string, in Input) Result {
	prev := t.states[groupID]
	res := t.Evaluate(groupID, in)
	if res.GoldenEdge {
		t.buyable[groupID] = true
	}
	if res.DeadEdge && prev == StateGolden {
		delete(t.buyable, groupID)
	}
	return res
}

// Buyable reports whether the group is currently on the whitelist.
func (t *Tracker) Buyable(groupID string) bool { return t.buyable[groupID] }

// GuardsPass checks the golden-entry guard conditions against a tick's
// indicator snapshot: the fast MA must sit above every configured under
// period's MA and its slope must reach the configured minimum. Guards only
// suppress entries and pyramiding; the state itself stays GOLDEN. Under MAs
// that are not yet available do not block.
func GuardsPass(pt *model.TimeSeriesPoint, pair config.CrossPair) bool {
	fast, ok := pt.MA[pair.From]
	if !ok {
		return false
	}
	if fast.Slope < pair.MinSlope {
		return false
	}
	for _, period := range pair.Under {
		if under, ok := pt.MA[period]; ok && fast.Value <= under.Value {
			return false
		}
	}
	return true
}
