package utils

import (
	"fmt"

	"github.com/absa_attention/pkg/tensor"
)

// MaskedValue replaces scores at padded positions so that a following
// softmax gives them (near) zero weight.
const MaskedValue = -1e9

// AttentionMask marks which sequence positions hold real tokens
type AttentionMask struct {
	Mask *tensor.Matrix
}

// NewPaddingMask creates a mask for right-padded sequences: 1.0 for the first
// validLengths[i] positions of row i, 0.0 for the padding after them
func NewPaddingMask(seqLen int, validLengths []int) (*AttentionMask, error) {
	mask, err := tensor.NewMatrix(len(validLengths), seqLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create mask matrix in NewPaddingMask: %w", err)
	}

	for i, validLen := range validLengths {
		if validLen < 0 || validLen > seqLen {
			return nil, fmt.Errorf("valid length %d for row %d outside [0, %d]", validLen, i, seqLen)
		}
		for j := 0; j < validLen; j++ {
			mask.Set(i, j, 1.0)
		}
	}

	return &AttentionMask{Mask: mask}, nil
}

// ApplyMask returns a copy of scores with masked positions set to MaskedValue
func (am *AttentionMask) ApplyMask(scores *tensor.Matrix) (*tensor.Matrix, error) {
	if scores == nil {
		return nil, fmt.Errorf("cannot mask nil scores")
	}
	if scores.Rows != am.Mask.Rows || scores.Cols != am.Mask.Cols {
		return nil, fmt.Errorf("mask dimensions don't match scores: mask(%dx%d), scores(%dx%d): %w",
			am.Mask.Rows, am.Mask.Cols, scores.Rows, scores.Cols, tensor.ErrShapeMismatch)
	}

	result := scores.Clone()
	for i := 0; i < result.Rows; i++ {
		for j := 0; j < result.Cols; j++ {
			if am.Mask.At(i, j) <= 0.0 {
				result.Set(i, j, MaskedValue)
			}
		}
	}

	return result, nil
}
