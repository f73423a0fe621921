package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape lists tensor dimensions from the outermost axis inwards.
// A leading 0 stands for a batch size that is not known yet.
type Shape []int

// Rank is the number of axes.
func (s Shape) Rank() int { return len(s) }

// Last returns the innermost dimension, or 0 for an empty shape.
func (s Shape) Last() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// Equal compares two shapes, treating an unknown batch (0) as a wildcard.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if i == 0 && (s[i] == 0 || o[i] == 0) {
			continue
		}
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// CheckRank returns an error unless the shape has exactly rank axes.
func (s Shape) CheckRank(rank int) error {
	if len(s) != rank {
		return fmt.Errorf("expected rank %d, got shape %s: %w", rank, s, ErrShapeMismatch)
	}
	return nil
}

// CheckDims returns an error unless every axis after the batch is positive.
// The batch may be 0 (unknown) but never negative.
func (s Shape) CheckDims() error {
	for i, d := range s {
		if d < 0 || (i > 0 && d == 0) {
			return fmt.Errorf("axis %d of shape %s must be positive: %w", i, s, ErrShapeMismatch)
		}
	}
	return nil
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		if i == 0 && d == 0 {
			parts[i] = "None"
			continue
		}
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
