package strategy

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pitwall-sim/pitwall/sim"
)

// Template is a compound sequence for an n-stop plan. Compounds is used when
// Requires is available (or Requires is empty); otherwise Fallback is used.
// A template is never skipped, whatever the available set.
type Template struct {
	Compounds []sim.Compound
	Requires  sim.Compound
	Fallback  []sim.Compound
}

// resolve picks the template variant for the available compounds.
func (t Template) resolve(available map[sim.Compound]bool) []sim.Compound {
	if t.Requires == "" || available[t.Requires] {
		return t.Compounds
	}
	return t.Fallback
}

// PitWindow bounds one pit lap. The lower bound is MinLap for the first stop
// and previous stop + MinGap afterwards; the upper bound is raceLaps - MaxBeforeEnd.
type PitWindow struct {
	MinLap       int
	MinGap       int
	MaxBeforeEnd int
}

// StopFamily generates every n-stop plan: each template crossed with every
// combination of Offsets around the Splits heuristic pit laps.
type StopFamily struct {
	Templates []Template
	Splits    []float64 // fraction of race distance per pit stop
	Offsets   []int     // perturbation applied to each pit stop independently
	Windows   []PitWindow
}

func (f StopFamily) validate() error {
	if len(f.Splits) == 0 || len(f.Splits) != len(f.Windows) {
		return fmt.Errorf("stop family: %d splits for %d windows", len(f.Splits), len(f.Windows))
	}
	if len(f.Offsets) == 0 {
		return fmt.Errorf("stop family: offsets are required")
	}
	for _, t := range f.Templates {
		if len(t.Compounds) != len(f.Splits)+1 {
			return fmt.Errorf("stop family: template %v needs %d compounds", t.Compounds, len(f.Splits)+1)
		}
		if t.Requires != "" && len(t.Fallback) != len(f.Splits)+1 {
			return fmt.Errorf("stop family: fallback %v needs %d compounds", t.Fallback, len(f.Splits)+1)
		}
	}
	return nil
}

// DefaultStopFamilies returns the two-stop and three-stop heuristics.
func DefaultStopFamilies() []StopFamily {
	S, M, H := sim.CompoundSoft, sim.CompoundMedium, sim.CompoundHard
	return []StopFamily{
		{
			Templates: []Template{
				{Compounds: []sim.Compound{S, M, H}, Requires: S, Fallback: []sim.Compound{M, M, H}},
				{Compounds: []sim.Compound{M, H, H}},
				{Compounds: []sim.Compound{S, S, H}, Requires: S, Fallback: []sim.Compound{M, M, H}},
			},
			Splits:  []float64{0.33, 0.66},
			Offsets: []int{-3, -2, -1, 0, 1, 2, 3},
			Windows: []PitWindow{
				{MinLap: 10, MaxBeforeEnd: 24},
				{MinGap: 8, MaxBeforeEnd: 8},
			},
		},
		{
			Templates: []Template{
				{Compounds: []sim.Compound{S, M, M, H}, Requires: S, Fallback: []sim.Compound{M, M, M, H}},
				{Compounds: []sim.Compound{S, S, M, H}, Requires: S, Fallback: []sim.Compound{M, M, H, H}},
			},
			Splits:  []float64{0.25, 0.50, 0.75},
			Offsets: []int{-2, -1, 0, 1, 2},
			Windows: []PitWindow{
				{MinLap: 8, MaxBeforeEnd: 30},
				{MinGap: 7, MaxBeforeEnd: 18},
				{MinGap: 7, MaxBeforeEnd: 6},
			},
		},
	}
}

// Candidate is a plan together with its concrete strategy.
type Candidate struct {
	Plan     Plan
	Strategy sim.Strategy
}

// Rejected is a generated plan that could not be used.
type Rejected struct {
	Plan   Plan
	Reason string
}

// Enumerator generates candidate plans.
type Enumerator struct {
	families []StopFamily
	limits   map[sim.Compound]int // max stint length per compound; nil = unlimited
}

// NewEnumerator validates families and builds an Enumerator.
func NewEnumerator(families []StopFamily) (*Enumerator, error) {
	for i, f := range families {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("family[%d]: %w", i, err)
		}
	}
	return &Enumerator{families: families}, nil
}

// DefaultEnumerator returns an Enumerator over DefaultStopFamilies.
func DefaultEnumerator() *Enumerator {
	return &Enumerator{families: DefaultStopFamilies()}
}

// WithStintLimits returns a copy that rejects plans containing a stint longer
// than limits[compound]. Compounds absent from limits are unrestricted.
func (e *Enumerator) WithStintLimits(limits map[sim.Compound]int) *Enumerator {
	cp := *e
	cp.limits = limits
	return &cp
}

// CandidatePlans returns the distinct usable plans in generation order.
func (e *Enumerator) CandidatePlans(raceLaps int, compounds []sim.Compound) []Plan {
	cands, _ := e.Enumerate(raceLaps, compounds)
	plans := make([]Plan, len(cands))
	for i, c := range cands {
		plans[i] = c.Plan
	}
	return plans
}

// Enumerate generates plans in a fixed order (no-stop plans, then each stop
// family's templates and offset combinations), removes duplicates keeping the
// first occurrence, and converts each plan to a strategy. Plans that fail
// conversion or exceed a stint limit are returned as rejected.
func (e *Enumerator) Enumerate(raceLaps int, compounds []sim.Compound) ([]Candidate, []Rejected) {
	available := make(map[sim.Compound]bool, len(compounds))
	var plans []Plan
	for _, c := range compounds {
		if available[c] {
			continue
		}
		available[c] = true
		plans = append(plans, Plan{Compounds: []sim.Compound{c}, PitLaps: []int{}})
	}

	for _, f := range e.families {
		centres := make([]int, len(f.Splits))
		for i, s := range f.Splits {
			centres[i] = int(s * float64(raceLaps))
		}
		for _, t := range f.Templates {
			seq := t.resolve(available)
			f.perturb(raceLaps, centres, func(pits []int) {
				plans = append(plans, Plan{Compounds: seq, PitLaps: pits})
			})
		}
	}

	seen := make(map[string]bool, len(plans))
	var cands []Candidate
	var rejected []Rejected
	for _, p := range plans {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		strategy, err := PlanToStrategy(p, raceLaps)
		if err != nil {
			rejected = append(rejected, Rejected{Plan: p, Reason: err.Error()})
			continue
		}
		if reason, over := e.exceedsLimit(strategy); over {
			rejected = append(rejected, Rejected{Plan: p, Reason: reason})
			continue
		}
		cands = append(cands, Candidate{Plan: p, Strategy: strategy})
	}

	logrus.Debugf("enumerated %d candidate plans for %d laps (%d rejected)", len(cands), raceLaps, len(rejected))
	return cands, rejected
}

func (e *Enumerator) exceedsLimit(s sim.Strategy) (string, bool) {
	for i, st := range s {
		if limit, ok := e.limits[st.Compound]; ok && st.Laps > limit {
			return fmt.Sprintf("stint[%d] %s runs %d laps, tyre life is %d", i, st.Compound, st.Laps, limit), true
		}
	}
	return "", false
}

// perturb calls emit with every clamped pit-lap sequence, first stop outermost.
func (f StopFamily) perturb(raceLaps int, centres []int, emit func([]int)) {
	pits := make([]int, len(centres))
	var step func(k int)
	step = func(k int) {
		if k == len(centres) {
			emit(append([]int(nil), pits...))
			return
		}
		w := f.Windows[k]
		lo := w.MinLap
		if k > 0 {
			lo = pits[k-1] + w.MinGap
		}
		hi := raceLaps - w.MaxBeforeEnd
		for _, d := range f.Offsets {
			pits[k] = clamp(centres[k]+d, lo, hi)
			step(k + 1)
		}
	}
	step(0)
}

// clamp bounds v to [lo, hi]; lo wins when the window is empty.
func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
