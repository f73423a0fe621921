package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Tensor3 is a rank-3 tensor of shape (Batch, Steps, Features), stored as one
// Steps x Features matrix per batch element.
type Tensor3 struct {
	Batch    int
	Steps    int
	Features int
	slices   []*mat.Dense
}

// NewTensor3 creates a zero tensor with the given dimensions
func NewTensor3(batch, steps, features int) (*Tensor3, error) {
	if batch <= 0 || steps <= 0 || features <= 0 {
		return nil, fmt.Errorf("invalid tensor dimensions: batch=%d, steps=%d, features=%d (must be positive)",
			batch, steps, features)
	}

	slices := make([]*mat.Dense, batch)
	for i := range slices {
		slices[i] = mat.NewDense(steps, features, nil)
	}

	return &Tensor3{Batch: batch, Steps: steps, Features: features, slices: slices}, nil
}

// MustNewTensor3 creates a zero tensor, panicking on invalid dimensions
func MustNewTensor3(batch, steps, features int) *Tensor3 {
	t, err := NewTensor3(batch, steps, features)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTensor3FromSlices copies data indexed [batch][step][feature] into a tensor
func NewTensor3FromSlices(data [][][]float64) (*Tensor3, error) {
	if len(data) == 0 || len(data[0]) == 0 || len(data[0][0]) == 0 {
		return nil, fmt.Errorf("cannot build tensor from empty data")
	}

	t, err := NewTensor3(len(data), len(data[0]), len(data[0][0]))
	if err != nil {
		return nil, err
	}

	for b, steps := range data {
		if len(steps) != t.Steps {
			return nil, fmt.Errorf("batch %d has %d steps, expected %d: %w", b, len(steps), t.Steps, ErrShapeMismatch)
		}
		for s, feats := range steps {
			if len(feats) != t.Features {
				return nil, fmt.Errorf("batch %d step %d has %d features, expected %d: %w",
					b, s, len(feats), t.Features, ErrShapeMismatch)
			}
			t.slices[b].SetRow(s, feats)
		}
	}

	return t, nil
}

// Shape returns (Batch, Steps, Features)
func (t *Tensor3) Shape() Shape {
	return Shape{t.Batch, t.Steps, t.Features}
}

// Slice returns the Steps x Features matrix of batch element i
func (t *Tensor3) Slice(i int) *Matrix {
	return FromDense(t.slices[i])
}

// At returns the element at (b, s, f)
func (t *Tensor3) At(b, s, f int) float64 {
	return t.slices[b].At(s, f)
}

// Set sets the element at (b, s, f)
func (t *Tensor3) Set(b, s, f int, v float64) {
	t.slices[b].Set(s, f, v)
}

// Dot contracts the last axis of x with the rows of w, the rank-3 analogue
// of a dense projection: (b, n, d) . (d, k) -> (b, n, k).
func Dot(x *Tensor3, w *Matrix) (*Tensor3, error) {
	if x == nil || w == nil {
		return nil, fmt.Errorf("cannot dot nil operands")
	}

	if x.Features != w.Rows {
		return nil, fmt.Errorf("tensor dimensions don't match for dot: x(%dx%dx%d), w(%dx%d): %w",
			x.Batch, x.Steps, x.Features, w.Rows, w.Cols, ErrShapeMismatch)
	}

	out := &Tensor3{Batch: x.Batch, Steps: x.Steps, Features: w.Cols, slices: make([]*mat.Dense, x.Batch)}
	for i, s := range x.slices {
		var d mat.Dense
		d.Mul(s, w.dense)
		out.slices[i] = &d
	}

	return out, nil
}

// BatchDot multiplies each batch slice of x by the matching row of t:
// (b, n, m) . (b, m) -> (b, n).
func BatchDot(x *Tensor3, t *Matrix) (*Matrix, error) {
	if x == nil || t == nil {
		return nil, fmt.Errorf("cannot batch-dot nil operands")
	}

	if x.Batch != t.Rows || x.Features != t.Cols {
		return nil, fmt.Errorf("tensor dimensions don't match for batch dot: x(%dx%dx%d), t(%dx%d): %w",
			x.Batch, x.Steps, x.Features, t.Rows, t.Cols, ErrShapeMismatch)
	}

	result, err := NewMatrix(x.Batch, x.Steps)
	if err != nil {
		return nil, err
	}

	for i, s := range x.slices {
		var v mat.VecDense
		v.MulVec(s, t.dense.RowView(i))
		for j := 0; j < x.Steps; j++ {
			result.Set(i, j, v.AtVec(j))
		}
	}

	return result, nil
}

// Squeeze drops a trailing axis of size one: (b, n, 1) -> (b, n).
func Squeeze(x *Tensor3) (*Matrix, error) {
	if x == nil {
		return nil, fmt.Errorf("cannot squeeze nil tensor")
	}

	if x.Features != 1 {
		return nil, fmt.Errorf("cannot squeeze last axis of size %d: %w", x.Features, ErrShapeMismatch)
	}

	result, err := NewMatrix(x.Batch, x.Steps)
	if err != nil {
		return nil, err
	}

	for i, s := range x.slices {
		for j := 0; j < x.Steps; j++ {
			result.Set(i, j, s.At(j, 0))
		}
	}

	return result, nil
}
