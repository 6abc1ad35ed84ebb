package sim

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidStrategy marks a strategy whose stints do not cover the race distance.
var ErrInvalidStrategy = errors.New("invalid strategy")

// Stint is a continuous run of laps on one compound.
type Stint struct {
	Compound Compound `json:"compound"`
	Laps     int      `json:"laps"`
}

// Strategy is an ordered sequence of stints.
type Strategy []Stint

// TotalLaps returns the sum of stint lengths.
func (s Strategy) TotalLaps() int {
	total := 0
	for _, st := range s {
		total += st.Laps
	}
	return total
}

// PitStops returns the number of stint transitions.
func (s Strategy) PitStops() int {
	return max(0, len(s)-1)
}

// Validate checks that s is non-empty, every stint has at least one lap,
// and the stints sum to raceLaps. Errors wrap ErrInvalidStrategy.
func (s Strategy) Validate(raceLaps int) error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no stints", ErrInvalidStrategy)
	}
	for i, st := range s {
		if st.Laps < 1 {
			return fmt.Errorf("%w: stint[%d] (%s) has %d laps", ErrInvalidStrategy, i, st.Compound, st.Laps)
		}
		if st.Compound == "" {
			return fmt.Errorf("%w: stint[%d] has no compound", ErrInvalidStrategy, i)
		}
	}
	if total := s.TotalLaps(); total != raceLaps {
		return fmt.Errorf("%w: stints cover %d laps, race has %d", ErrInvalidStrategy, total, raceLaps)
	}
	return nil
}

// String renders s as "SOFT:18,MEDIUM:39".
func (s Strategy) String() string {
	parts := make([]string, len(s))
	for i, st := range s {
		parts[i] = fmt.Sprintf("%s:%d", st.Compound, st.Laps)
	}
	return strings.Join(parts, ",")
}

// ParseStrategy parses "SOFT:18,MEDIUM:39" (compound names are case-insensitive).
func ParseStrategy(text string) (Strategy, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty strategy", ErrInvalidStrategy)
	}
	var out Strategy
	for i, part := range strings.Split(text, ",") {
		name, lapsText, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("stint[%d] %q: expected COMPOUND:LAPS", i, part)
		}
		c, err := ParseCompound(name)
		if err != nil {
			return nil, fmt.Errorf("stint[%d]: %w", i, err)
		}
		laps, err := strconv.Atoi(strings.TrimSpace(lapsText))
		if err != nil {
			return nil, fmt.Errorf("stint[%d] laps %q: %w", i, lapsText, err)
		}
		out = append(out, Stint{Compound: c, Laps: laps})
	}
	return out, nil
}
