package sim

// FeatureLayout fixes the per-lap feature vector layout:
//
//	[prevDelta, lapInStint, one-hot(Compounds)..., OptionalFeatures..., padding]
//
// Missing optional environment values are encoded as 0.
type FeatureLayout struct {
	Compounds        []Compound
	OptionalFeatures []string
}

// Width returns the natural feature width of the layout, padding slot included.
func (l FeatureLayout) Width() int {
	return 2 + len(l.Compounds) + len(l.OptionalFeatures) + 1
}

// Row builds one feature vector, zero-padded or truncated to dim.
func (l FeatureLayout) Row(prevDelta float64, stintLap int, c Compound, env Environment, dim int) []float64 {
	row := make([]float64, 0, l.Width())
	row = append(row, prevDelta, float64(stintLap))
	for _, oc := range l.Compounds {
		if oc == c {
			row = append(row, 1)
		} else {
			row = append(row, 0)
		}
	}
	for _, key := range l.OptionalFeatures {
		v, _ := env.Value(key)
		row = append(row, v)
	}
	row = append(row, 0)
	return fitWidth(row, dim)
}

func fitWidth(row []float64, dim int) []float64 {
	if len(row) == dim {
		return row
	}
	out := make([]float64, dim)
	copy(out, row)
	return out
}

// FeatureWindow is a fixed-length FIFO of feature rows, oldest first.
// Starts zero-filled. Owned by a single stint simulation; not thread-safe.
type FeatureWindow struct {
	rows [][]float64
	dim  int
}

// NewFeatureWindow creates a zero-filled seqLen x dim window.
func NewFeatureWindow(seqLen, dim int) *FeatureWindow {
	rows := make([][]float64, seqLen)
	for i := range rows {
		rows[i] = make([]float64, dim)
	}
	return &FeatureWindow{rows: rows, dim: dim}
}

// Push drops the oldest row and appends row (fitted to the window width).
func (w *FeatureWindow) Push(row []float64) {
	if len(w.rows) == 0 {
		return
	}
	copy(w.rows, w.rows[1:])
	fresh := make([]float64, w.dim)
	copy(fresh, row)
	w.rows[len(w.rows)-1] = fresh
}

// Rows returns the window contents, oldest first. Callers must not modify them.
func (w *FeatureWindow) Rows() [][]float64 {
	return w.rows
}
