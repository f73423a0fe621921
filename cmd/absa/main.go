// Command absa embeds review rows with GloVe vectors and runs the attention
// scoring layers over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/absa_attention/internal/config"
	"github.com/absa_attention/internal/logging"
	"github.com/absa_attention/pkg/embedding"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "absa",
	Short: "Review embedding and attention scoring for aspect sentiment models",
	Long: `absa maps review text to fixed-length sequences of GloVe vectors and
runs the weighted projection, attention and self-attention scoring layers
over them.

The embedding file is read from <data_dir>/glove.6B/<file>.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(embedCmd, aspectsCmd, scoreCmd)
}

// loadEmbeddings reads the configured GloVe file.
func loadEmbeddings() (*embedding.Map, error) {
	path := cfg.EmbeddingPath()
	m, err := embedding.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded embeddings",
		zap.String("path", path),
		zap.Int("tokens", m.Len()),
		zap.Int("dim", m.Dim()))
	return m, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
