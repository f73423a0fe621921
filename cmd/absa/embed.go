package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/absa_attention/pkg/embedding"
	"github.com/absa_attention/pkg/preprocess"
)

var inputPath string

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed and pad review rows, writing one JSON object per row",
	Long: `Reads CSV rows (with a header line) and replaces the configured text
fields with fixed-length sequences of embedding vectors. Unknown tokens and
padding use the pad vector.`,
	RunE: runEmbed,
}

func init() {
	for _, c := range []*cobra.Command{embedCmd, scoreCmd} {
		c.Flags().StringVarP(&inputPath, "input", "i", "-", "CSV input file, - for stdin")
	}
}

// embedRows loads embeddings and runs the configured pipeline over the input.
func embedRows(cmd *cobra.Command) ([]*preprocess.EmbeddedRow, preprocess.Variant, error) {
	variant, err := cfg.Variant()
	if err != nil {
		return nil, variant, err
	}

	m, err := loadEmbeddings()
	if err != nil {
		return nil, variant, err
	}

	fn, err := preprocess.NewEmbedPadFunc(variant, preprocess.PadVector(m.Dim(), cfg.Embedding.PadFill), m)
	if err != nil {
		return nil, variant, err
	}

	in, err := openInput(inputPath, cmd.InOrStdin())
	if err != nil {
		return nil, variant, err
	}
	defer in.Close()

	rows, err := readRows(in)
	if err != nil {
		return nil, variant, err
	}

	p := &preprocess.Pipeline{Fn: fn, Workers: cfg.Pipeline.Workers, Logger: logger}
	embedded, err := p.Run(cmd.Context(), rows)
	if err != nil {
		return nil, variant, err
	}
	logger.Info("embedded rows", zap.Int("rows", len(embedded)))
	return embedded, variant, nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	rows, _, err := embedRows(cmd)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

var aspectsCmd = &cobra.Command{
	Use:   "aspects [word...]",
	Short: "Look up aspect words and print their embedding matrix",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadEmbeddings()
		if err != nil {
			return err
		}

		vectors, err := embedding.EmbedAspects(args, m, logger)
		if err != nil {
			return err
		}
		matrix, err := embedding.AspectMatrix(vectors)
		if err != nil {
			return err
		}

		rows := make([][]float64, matrix.Rows)
		for i := range rows {
			rows[i] = matrix.Row(i)
		}
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
			"aspects": args,
			"matrix":  rows,
		})
	},
}
