package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absa_attention/pkg/tensor"
)

func TestNewPaddingMask(t *testing.T) {
	m, err := NewPaddingMask(4, []int{2, 4, 0})
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 1, 0, 0}, m.Mask.Row(0))
	assert.Equal(t, []float64{1, 1, 1, 1}, m.Mask.Row(1))
	assert.Equal(t, []float64{0, 0, 0, 0}, m.Mask.Row(2))

	_, err = NewPaddingMask(3, []int{5})
	assert.Error(t, err)
}

func TestApplyMask(t *testing.T) {
	m, err := NewPaddingMask(3, []int{1})
	require.NoError(t, err)
	scores, _ := tensor.NewMatrixFromRows([][]float64{{0.3, 0.2, 0.1}})

	out, err := m.ApplyMask(scores)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, MaskedValue, MaskedValue}, out.Row(0))
	assert.Equal(t, 0.2, scores.At(0, 1))

	_, err = m.ApplyMask(tensor.MustNewMatrix(2, 3))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}
