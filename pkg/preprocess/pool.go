package preprocess

import (
	"fmt"

	"github.com/absa_attention/pkg/tensor"
)

// MeanPool averages the real (unpadded) vectors of one field per row into a
// (rows, dim) matrix, the context input of AttentionScore. A row with no real
// tokens pools to zeros.
func MeanPool(rows []*EmbeddedRow, field string) (*tensor.Matrix, error) {
	x, err := ToTensor3(rows, field)
	if err != nil {
		return nil, err
	}

	out, err := tensor.NewMatrix(x.Batch, x.Features)
	if err != nil {
		return nil, err
	}

	for b, row := range rows {
		n := row.Sequences[field].ValidLen
		if n == 0 {
			continue
		}
		if n > x.Steps {
			return nil, fmt.Errorf("row %d: valid length %d exceeds %d steps", b, n, x.Steps)
		}
		for f := 0; f < x.Features; f++ {
			sum := 0.0
			for s := 0; s < n; s++ {
				sum += x.At(b, s, f)
			}
			out.Set(b, f, sum/float64(n))
		}
	}

	return out, nil
}
