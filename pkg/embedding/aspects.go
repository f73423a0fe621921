package embedding

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/absa_attention/pkg/tensor"
)

// MissingAspectsError lists aspect words that have no embedding.
type MissingAspectsError struct {
	Words []string
}

func (e *MissingAspectsError) Error() string {
	return fmt.Sprintf("aspect words not found in embedding map: %s", strings.Join(e.Words, ", "))
}

// EmbedAspects maps each aspect word to its vector. Every miss is logged and
// the call fails with a *MissingAspectsError naming all of them, so no
// unresolved entry ever reaches a numeric consumer.
func EmbedAspects(aspects []string, m *Map, logger *zap.Logger) ([]Vector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]Vector, 0, len(aspects))
	var missing []string
	for _, word := range aspects {
		v, ok := m.Lookup(word)
		if !ok {
			logger.Warn("aspect word not found in embedding map", zap.String("word", word))
			missing = append(missing, word)
			continue
		}
		out = append(out, v)
	}

	if len(missing) > 0 {
		return nil, &MissingAspectsError{Words: missing}
	}
	return out, nil
}

// AspectMatrix stacks aspect vectors into a (len(vectors) x dim) matrix.
func AspectMatrix(vectors []Vector) (*tensor.Matrix, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no aspect vectors to stack")
	}

	dim := len(vectors[0])
	data := make([]float64, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("aspect %d has dimension %d, expected %d: %w", i, len(v), dim, tensor.ErrShapeMismatch)
		}
		data = append(data, v.Float64s()...)
	}

	return tensor.FromDense(mat.NewDense(len(vectors), dim, data)), nil
}
