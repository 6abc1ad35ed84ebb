// Package degradation provides the learned tyre degradation model for the
// pitwall simulator. The DegradationModel interface is defined in sim/
// (parent package); this package provides a stacked LSTM with an MLP head
// whose weights are exported from training as JSON.
package degradation

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// LayerWeights holds one LSTM layer in PyTorch layout: gate rows ordered
// input, forget, cell, output (each block Hidden rows).
type LayerWeights struct {
	WeightIH [][]float64 `json:"w_ih"` // 4H x in
	WeightHH [][]float64 `json:"w_hh"` // 4H x H
	BiasIH   []float64   `json:"b_ih"` // 4H
	BiasHH   []float64   `json:"b_hh"` // 4H
}

// LinearWeights holds one fully connected layer (out x in).
type LinearWeights struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

// Weights is the on-disk model description.
type Weights struct {
	InputDim int             `json:"input_dim"`
	Hidden   int             `json:"hidden"`
	Layers   []LayerWeights  `json:"layers"`
	Head     []LinearWeights `json:"head"` // ReLU between layers, none after the last
}

type lstmLayer struct {
	wih  *mat.Dense
	whh  *mat.Dense
	bias *mat.VecDense // b_ih + b_hh
}

type linearLayer struct {
	w *mat.Dense
	b *mat.VecDense
}

// LSTM is a stacked LSTM followed by an MLP head producing one scalar
// from the last time step. Read-only after construction; safe for concurrent use.
type LSTM struct {
	inputDim int
	hidden   int
	layers   []lstmLayer
	head     []linearLayer
}

// Load reads a JSON weight file and builds an LSTM.
func Load(path string) (*LSTM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read degradation model %q: %w", path, err)
	}
	var w Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse degradation model JSON: %w", err)
	}
	m, err := New(w)
	if err != nil {
		return nil, fmt.Errorf("degradation model %q: %w", path, err)
	}
	return m, nil
}

// New validates w and builds an LSTM.
func New(w Weights) (*LSTM, error) {
	if w.InputDim <= 0 {
		return nil, fmt.Errorf("input_dim must be positive, got %d", w.InputDim)
	}
	if w.Hidden <= 0 {
		return nil, fmt.Errorf("hidden must be positive, got %d", w.Hidden)
	}
	if len(w.Layers) == 0 {
		return nil, fmt.Errorf("at least one LSTM layer is required")
	}
	if len(w.Head) == 0 {
		return nil, fmt.Errorf("at least one head layer is required")
	}

	m := &LSTM{inputDim: w.InputDim, hidden: w.Hidden}
	in := w.InputDim
	gates := 4 * w.Hidden
	for i, lw := range w.Layers {
		name := fmt.Sprintf("layers[%d]", i)
		wih, err := denseFrom(name+".w_ih", lw.WeightIH, gates, in)
		if err != nil {
			return nil, err
		}
		whh, err := denseFrom(name+".w_hh", lw.WeightHH, gates, w.Hidden)
		if err != nil {
			return nil, err
		}
		bih, err := vecFrom(name+".b_ih", lw.BiasIH, gates)
		if err != nil {
			return nil, err
		}
		bhh, err := vecFrom(name+".b_hh", lw.BiasHH, gates)
		if err != nil {
			return nil, err
		}
		bias := mat.NewVecDense(gates, nil)
		bias.AddVec(bih, bhh)
		m.layers = append(m.layers, lstmLayer{wih: wih, whh: whh, bias: bias})
		in = w.Hidden
	}

	for i, hw := range w.Head {
		name := fmt.Sprintf("head[%d]", i)
		out := len(hw.Weight)
		if out == 0 {
			return nil, fmt.Errorf("%s.weight is empty", name)
		}
		wd, err := denseFrom(name+".weight", hw.Weight, out, in)
		if err != nil {
			return nil, err
		}
		b, err := vecFrom(name+".bias", hw.Bias, out)
		if err != nil {
			return nil, err
		}
		m.head = append(m.head, linearLayer{w: wd, b: b})
		in = out
	}
	if in != 1 {
		return nil, fmt.Errorf("head must end in a single output, got %d", in)
	}
	return m, nil
}

// InputDim returns the feature width the model was trained on.
func (m *LSTM) InputDim() int {
	return m.inputDim
}

// Predict runs the forward pass over window (seqLen x InputDim, oldest first)
// and returns the head output at the last time step.
func (m *LSTM) Predict(window [][]float64) (float64, error) {
	if len(window) == 0 {
		return 0, fmt.Errorf("lstm: empty window")
	}
	seq := make([]*mat.VecDense, len(window))
	for t, row := range window {
		if len(row) != m.inputDim {
			return 0, fmt.Errorf("lstm: row %d has width %d, want %d", t, len(row), m.inputDim)
		}
		seq[t] = mat.NewVecDense(m.inputDim, append([]float64(nil), row...))
	}

	for _, layer := range m.layers {
		seq = m.runLayer(layer, seq)
	}

	x := seq[len(seq)-1]
	for i, l := range m.head {
		r, _ := l.w.Dims()
		y := mat.NewVecDense(r, nil)
		y.MulVec(l.w, x)
		y.AddVec(y, l.b)
		if i < len(m.head)-1 {
			for j := 0; j < r; j++ {
				y.SetVec(j, math.Max(0, y.AtVec(j)))
			}
		}
		x = y
	}

	out := x.AtVec(0)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("lstm: non-finite output %v", out)
	}
	return out, nil
}

// runLayer steps one LSTM layer over seq and returns its hidden states.
func (m *LSTM) runLayer(layer lstmLayer, seq []*mat.VecDense) []*mat.VecDense {
	H := m.hidden
	h := mat.NewVecDense(H, nil)
	c := make([]float64, H)
	gates := mat.NewVecDense(4*H, nil)
	rec := mat.NewVecDense(4*H, nil)
	out := make([]*mat.VecDense, len(seq))

	for t, x := range seq {
		gates.MulVec(layer.wih, x)
		rec.MulVec(layer.whh, h)
		gates.AddVec(gates, rec)
		gates.AddVec(gates, layer.bias)

		next := mat.NewVecDense(H, nil)
		for j := 0; j < H; j++ {
			ig := sigmoid(gates.AtVec(j))
			fg := sigmoid(gates.AtVec(H + j))
			gg := math.Tanh(gates.AtVec(2*H + j))
			og := sigmoid(gates.AtVec(3*H + j))
			c[j] = fg*c[j] + ig*gg
			next.SetVec(j, og*math.Tanh(c[j]))
		}
		h = next
		out[t] = next
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func denseFrom(name string, rows [][]float64, r, c int) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("%s: got %d rows, want %d", name, len(rows), r)
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%s[%d]: got %d columns, want %d", name, i, len(row), c)
		}
		if err := checkFinite(name, row); err != nil {
			return nil, err
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}

func vecFrom(name string, v []float64, n int) (*mat.VecDense, error) {
	if len(v) != n {
		return nil, fmt.Errorf("%s: got %d elements, want %d", name, len(v), n)
	}
	if err := checkFinite(name, v); err != nil {
		return nil, err
	}
	return mat.NewVecDense(n, append([]float64(nil), v...)), nil
}

// checkFinite rejects NaN or Inf weights.
func checkFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) {
			return fmt.Errorf("%s[%d] is NaN", name, i)
		}
		if math.IsInf(v, 0) {
			return fmt.Errorf("%s[%d] is Inf", name, i)
		}
	}
	return nil
}
