package tensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrixRejectsNonPositiveDims(t *testing.T) {
	_, err := NewMatrix(0, 3)
	require.Error(t, err)

	assert.Panics(t, func() { MustNewMatrix(2, -1) })
}

func TestMatMul(t *testing.T) {
	a, err := NewMatrixFromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	b, err := NewMatrixFromRows([][]float64{{5}, {6}})
	require.NoError(t, err)

	out, err := MatMul(a, b)
	require.NoError(t, err)
	want, _ := NewMatrixFromRows([][]float64{{17}, {39}})
	assert.True(t, Equal(out, want, 1e-12), "got %v", out)

	_, err = MatMul(b, b)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestNewMatrixFromRowsRagged(t *testing.T) {
	_, err := NewMatrixFromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestBiasAdd(t *testing.T) {
	m, _ := NewMatrixFromRows([][]float64{{1, 1, 1}, {2, 2, 2}})

	out, err := BiasAdd(m, []float64{0.5, 0, -1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 1, 0}, out.Row(0))
	assert.Equal(t, []float64{2.5, 2, 1}, out.Row(1))
	assert.Equal(t, []float64{1, 1, 1}, m.Row(0), "input must not be modified")

	_, err = BiasAdd(m, []float64{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDotReplacesLastDimension(t *testing.T) {
	x := MustNewTensor3(2, 3, 4)
	for b := 0; b < 2; b++ {
		for s := 0; s < 3; s++ {
			for f := 0; f < 4; f++ {
				x.Set(b, s, f, float64(b+s+f))
			}
		}
	}
	w := MustNewMatrix(4, 5)
	for i := 0; i < 4; i++ {
		w.Set(i, 0, 1)
	}

	out, err := Dot(x, w)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3, 5}, out.Shape())
	// column 0 of w sums the features: 2+3+4+5
	assert.InDelta(t, 14.0, out.At(1, 1, 0), 1e-12)
	assert.Zero(t, out.At(1, 1, 4))

	_, err = Dot(x, MustNewMatrix(3, 5))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestBatchDot(t *testing.T) {
	x, err := NewTensor3FromSlices([][][]float64{
		{{1, 0}, {0, 1}, {1, 1}},
		{{2, 0}, {0, 2}, {1, -1}},
	})
	require.NoError(t, err)
	tm, _ := NewMatrixFromRows([][]float64{{3, 4}, {1, 2}})

	out, err := BatchDot(x, tm)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, out.Shape())
	assert.Equal(t, []float64{3, 4, 7}, out.Row(0))
	assert.Equal(t, []float64{2, 4, -1}, out.Row(1))

	_, err = BatchDot(x, MustNewMatrix(3, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSqueeze(t *testing.T) {
	x := MustNewTensor3(2, 3, 1)
	x.Set(1, 2, 0, 7)

	out, err := Squeeze(x)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, out.Shape())
	assert.Equal(t, 7.0, out.At(1, 2))

	_, err = Squeeze(MustNewTensor3(1, 1, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestShapeEqualTreatsUnknownBatchAsWildcard(t *testing.T) {
	assert.True(t, Shape{0, 5, 3}.Equal(Shape{8, 5, 3}))
	assert.False(t, Shape{8, 5, 3}.Equal(Shape{8, 5, 4}))
	assert.Equal(t, "(None, 5, 3)", Shape{0, 5, 3}.String())
	assert.Error(t, Shape{1, 2}.CheckRank(3))
	assert.NoError(t, Shape{0, 5, 3}.CheckDims())
	assert.ErrorIs(t, Shape{0, 0, 3}.CheckDims(), ErrShapeMismatch)
	assert.ErrorIs(t, Shape{-1, 5}.CheckDims(), ErrShapeMismatch)
}
