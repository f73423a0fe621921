package preprocess

import (
	"fmt"

	"github.com/absa_attention/internal/utils"
	"github.com/absa_attention/pkg/tensor"
)

// Batch is one field of a group of embedded rows, stacked for the layers
type Batch struct {
	Inputs          *tensor.Tensor3
	AttentionMask   *utils.AttentionMask
	SequenceLengths []int
	BatchSize       int
}

// NewBatch stacks field of rows into a tensor and builds its padding mask
func NewBatch(rows []*EmbeddedRow, field string) (*Batch, error) {
	inputs, err := ToTensor3(rows, field)
	if err != nil {
		return nil, fmt.Errorf("failed to stack batch: %w", err)
	}

	sequenceLengths := make([]int, len(rows))
	for i, row := range rows {
		sequenceLengths[i] = row.Sequences[field].ValidLen
	}

	paddingMask, err := utils.NewPaddingMask(inputs.Steps, sequenceLengths)
	if err != nil {
		return nil, fmt.Errorf("failed to create padding mask: %w", err)
	}

	return &Batch{
		Inputs:          inputs,
		AttentionMask:   paddingMask,
		SequenceLengths: sequenceLengths,
		BatchSize:       len(rows),
	}, nil
}

// Split cuts rows into consecutive groups of at most size rows
func Split(rows []*EmbeddedRow, size int) [][]*EmbeddedRow {
	if size <= 0 || size >= len(rows) {
		if len(rows) == 0 {
			return nil
		}
		return [][]*EmbeddedRow{rows}
	}

	groups := make([][]*EmbeddedRow, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		groups = append(groups, rows[start:end])
	}
	return groups
}
