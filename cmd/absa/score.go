package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/absa_attention/internal/config"
	"github.com/absa_attention/pkg/layers"
	"github.com/absa_attention/pkg/preprocess"
	"github.com/absa_attention/pkg/tensor"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run the scoring layers over embedded rows",
	Long: `Embeds the input rows, then scores the second field's sequence three ways:

  self-attention weights    softmax(tanh(X.w + b)), padding masked
  attention scores          tanh(batch_dot(X.W, T) + b), T the mean of the first field
  weighted projection       X.K with K of shape (dim, output_dim), per step

Rows are scored in batches of pipeline.batch_size. Prints the weights and
scores of every row, plus the output shape of every layer.`,
	RunE: runScore,
}

type scoreReport struct {
	Shapes map[string]string `json:"shapes"`
	Rows   []rowScores       `json:"rows"`
}

type rowScores struct {
	Fields         map[string]string `json:"fields,omitempty"`
	SelfAttention  []float64         `json:"self_attention"`
	AttentionScore []float64         `json:"attention_score"`
	Projection     [][]float64       `json:"weighted_add"`
}

func layerOptions(lc config.LayersConfig, name string) []layers.Option {
	opts := []layers.Option{
		layers.WithName(name),
		layers.WithLogger(logger),
		layers.WithKernelInitializer(lc.KernelInitializer),
		layers.WithBiasInitializer(lc.BiasInitializer),
		layers.WithActivation(lc.Activation),
		layers.WithOutputActivation(lc.OutputActivation),
	}
	return append(opts, seedOptions(lc)...)
}

func seedOptions(lc config.LayersConfig) []layers.Option {
	if lc.Seed == nil {
		return nil
	}
	return []layers.Option{layers.WithSeed(*lc.Seed)}
}

func runScore(cmd *cobra.Command, args []string) error {
	rows, variant, err := embedRows(cmd)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows to score")
	}
	if len(variant.Fields) < 2 {
		return fmt.Errorf("score needs a context field and a sequence field, got %d field(s)", len(variant.Fields))
	}
	contextField, seqField := variant.Fields[0].Name, variant.Fields[1].Name

	selfAttn, err := layers.NewSelfAttentionScore(layerOptions(cfg.Layers, "self_attention_score")...)
	if err != nil {
		return err
	}
	// WithOutputActivation is ignored by AttentionScore
	attn, err := layers.NewAttentionScore(layerOptions(cfg.Layers, "attention_score")...)
	if err != nil {
		return err
	}
	projOpts := []layers.Option{layers.WithName("weighted_add"), layers.WithLogger(logger)}
	proj, err := layers.NewWeightedAdd(cfg.Layers.OutputDim, append(projOpts, seedOptions(cfg.Layers)...)...)
	if err != nil {
		return err
	}

	var report scoreReport
	for _, group := range preprocess.Split(rows, cfg.Pipeline.BatchSize) {
		batch, err := preprocess.NewBatch(group, seqField)
		if err != nil {
			return err
		}
		ctxVec, err := preprocess.MeanPool(group, contextField)
		if err != nil {
			return err
		}

		weights, err := selfAttn.CallMasked(batch.Inputs, batch.AttentionMask)
		if err != nil {
			return err
		}
		scores, err := attn.Call(batch.Inputs, ctxVec)
		if err != nil {
			return err
		}
		projected, err := proj.Call(batch.Inputs)
		if err != nil {
			return err
		}

		for i, row := range group {
			report.Rows = append(report.Rows, rowScores{
				Fields:         row.Fields,
				SelfAttention:  weights.Row(i),
				AttentionScore: scores.Row(i),
				Projection:     matrixRows(projected.Slice(i)),
			})
		}
		logger.Debug("scored batch", zap.Int("rows", batch.BatchSize))
	}

	report.Shapes, err = layerShapes(rows, seqField, selfAttn, attn, proj)
	if err != nil {
		return err
	}

	for _, l := range []layers.Layer{selfAttn, attn, proj} {
		for _, w := range l.Weights() {
			logger.Debug("layer weight", zap.String("name", w.Name), zap.Stringer("shape", w.Shape))
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func matrixRows(m *tensor.Matrix) [][]float64 {
	rows := make([][]float64, m.Rows)
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return rows
}

// layerShapes reports each layer's output shape for an unknown batch size.
func layerShapes(rows []*preprocess.EmbeddedRow, seqField string,
	selfAttn *layers.SelfAttentionScore, attn *layers.AttentionScore, proj *layers.WeightedAdd,
) (map[string]string, error) {
	seq := rows[0].Sequences[seqField]
	in := tensor.Shape{0, len(seq.Vectors), len(seq.Vectors[0])}
	ctx := tensor.Shape{0, in[2]}

	shapes := map[string]string{"input": in.String(), "context": ctx.String()}
	for name, shape := range map[string]func() (tensor.Shape, error){
		selfAttn.Name(): func() (tensor.Shape, error) { return selfAttn.ComputeOutputShape(in) },
		attn.Name():     func() (tensor.Shape, error) { return attn.ComputeOutputShape(in, ctx) },
		proj.Name():     func() (tensor.Shape, error) { return proj.ComputeOutputShape(in) },
	} {
		out, err := shape()
		if err != nil {
			return nil, err
		}
		shapes[name] = out.String()
	}
	return shapes, nil
}
