// Package strategy enumerates candidate pit-stop plans and ranks them by
// simulated race time.
package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pitwall-sim/pitwall/sim"
)

// Plan is a candidate strategy template: a compound per stint and the laps
// on which the car pits (one fewer than the compounds).
type Plan struct {
	Compounds []sim.Compound `json:"compounds"`
	PitLaps   []int          `json:"pit_laps"`
}

// Stops returns the number of planned pit stops.
func (p Plan) Stops() int {
	return len(p.PitLaps)
}

// Key identifies a plan by (compound sequence, pit-lap sequence),
// e.g. "SOFT-MEDIUM-HARD@19,38". A no-stop plan renders as "HARD@".
func (p Plan) Key() string {
	var b strings.Builder
	for i, c := range p.Compounds {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(string(c))
	}
	b.WriteByte('@')
	for i, lap := range p.PitLaps {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(lap))
	}
	return b.String()
}

// PlanToStrategy converts pit-lap boundaries into contiguous stint lengths
// summing to raceLaps. Any drift is absorbed by the final stint only, which
// never drops below one lap. Errors wrap sim.ErrInvalidStrategy.
func PlanToStrategy(p Plan, raceLaps int) (sim.Strategy, error) {
	if len(p.Compounds) == 0 {
		return nil, fmt.Errorf("%w: plan has no compounds", sim.ErrInvalidStrategy)
	}
	if len(p.Compounds) != len(p.PitLaps)+1 {
		return nil, fmt.Errorf("%w: plan %s has %d compounds for %d pit stops",
			sim.ErrInvalidStrategy, p.Key(), len(p.Compounds), len(p.PitLaps))
	}

	lengths := stintLengths(p.PitLaps, raceLaps)

	sum := 0
	for _, l := range lengths {
		sum += l
	}
	last := len(lengths) - 1
	if sum < raceLaps {
		lengths[last] += raceLaps - sum
	} else if sum > raceLaps {
		lengths[last] = max(1, lengths[last]-(sum-raceLaps))
	}

	strategy := make(sim.Strategy, len(lengths))
	for i, l := range lengths {
		strategy[i] = sim.Stint{Compound: p.Compounds[i], Laps: l}
	}
	if err := strategy.Validate(raceLaps); err != nil {
		return nil, fmt.Errorf("plan %s: %w", p.Key(), err)
	}
	return strategy, nil
}

// stintLengths turns sorted pit laps into per-stint lap counts.
func stintLengths(pitLaps []int, raceLaps int) []int {
	if len(pitLaps) == 0 {
		return []int{raceLaps}
	}
	cuts := append([]int(nil), pitLaps...)
	sort.Ints(cuts)

	lengths := make([]int, 0, len(cuts)+1)
	lengths = append(lengths, cuts[0])
	for i := 1; i < len(cuts); i++ {
		lengths = append(lengths, cuts[i]-cuts[i-1])
	}
	return append(lengths, raceLaps-cuts[len(cuts)-1])
}
