package preprocess

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/absa_attention/pkg/tensor"
)

// Pipeline applies an EmbedPadFunc to many rows concurrently. The embedding
// map behind Fn is only read, so workers share it.
type Pipeline struct {
	Fn      EmbedPadFunc
	Workers int
	Logger  *zap.Logger
}

// Run converts rows in order. The first failing row cancels the remaining
// work and its error is returned.
func (p *Pipeline) Run(ctx context.Context, rows []Row) ([]*EmbeddedRow, error) {
	if p.Fn == nil {
		return nil, fmt.Errorf("pipeline has no embed function")
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]*EmbeddedRow, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, row := range rows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			embedded, err := p.Fn(row)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			out[i] = embedded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("embedding rows failed", zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("embedded rows", zap.Int("rows", len(rows)), zap.Int("workers", workers))
	return out, nil
}

// ToTensor3 stacks one field of many embedded rows into a
// (rows, maxLen, dim) tensor.
func ToTensor3(rows []*EmbeddedRow, field string) (*tensor.Tensor3, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows to stack")
	}

	first, ok := rows[0].Sequences[field]
	if !ok || len(first.Vectors) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, field)
	}

	x, err := tensor.NewTensor3(len(rows), len(first.Vectors), len(first.Vectors[0]))
	if err != nil {
		return nil, err
	}

	for b, row := range rows {
		seq, ok := row.Sequences[field]
		if !ok {
			return nil, fmt.Errorf("row %d: %w: %q", b, ErrMissingField, field)
		}
		if len(seq.Vectors) != x.Steps {
			return nil, fmt.Errorf("row %d: sequence length %d, expected %d: %w", b, len(seq.Vectors), x.Steps, tensor.ErrShapeMismatch)
		}
		for s, v := range seq.Vectors {
			if len(v) != x.Features {
				return nil, fmt.Errorf("row %d step %d: dimension %d, expected %d: %w", b, s, len(v), x.Features, tensor.ErrShapeMismatch)
			}
			for f, val := range v {
				x.Set(b, s, f, float64(val))
			}
		}
	}

	return x, nil
}
