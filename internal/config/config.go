// Package config loads the preprocessing and layer settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/absa_attention/internal/tokenizer"
	"github.com/absa_attention/pkg/embedding"
	"github.com/absa_attention/pkg/preprocess"
)

// Environment overrides, applied after the file is read.
const (
	EnvDataDir   = "ABSA_DATA_DIR"
	EnvGloveFile = "ABSA_GLOVE_FILE"
	EnvLogLevel  = "ABSA_LOG_LEVEL"
	EnvWorkers   = "ABSA_WORKERS"
)

// Variant names
const (
	VariantUserMovie    = "user_movie"
	VariantAspectReview = "aspect_review"
)

// Config holds all settings.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Sequence  SequenceConfig  `yaml:"sequence"`
	Layers    LayersConfig    `yaml:"layers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EmbeddingConfig locates the GloVe file and the pad vector fill.
type EmbeddingConfig struct {
	DataDir string  `yaml:"data_dir"`
	File    string  `yaml:"file"`
	PadFill float32 `yaml:"pad_fill"`
}

// SequenceConfig selects the field pair, their lengths and the tokenizer.
// An empty Tokenizer keeps the variant's own. Fields overrides the variant's
// field names when set.
type SequenceConfig struct {
	Variant   string                 `yaml:"variant"`
	FirstLen  int                    `yaml:"first_len"`
	SecondLen int                    `yaml:"second_len"`
	Tokenizer string                 `yaml:"tokenizer"`
	Delimiter string                 `yaml:"delimiter"`
	Fields    []preprocess.FieldSpec `yaml:"fields,omitempty"`
}

// LayersConfig configures the scoring layers built by the score command.
type LayersConfig struct {
	OutputDim         int    `yaml:"output_dim"`
	Activation        string `yaml:"activation"`
	OutputActivation  string `yaml:"output_activation"`
	KernelInitializer string `yaml:"kernel_initializer"`
	BiasInitializer   string `yaml:"bias_initializer"`

	// Seed makes weight initialisation repeatable. Unset means random.
	Seed *uint64 `yaml:"seed,omitempty"`
}

// PipelineConfig bounds embedding concurrency and the scoring batch size.
type PipelineConfig struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Default returns the settings used by the user/movie review models.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			DataDir: "data",
			File:    "glove.6B.100d.txt",
		},
		Sequence: SequenceConfig{
			Variant:   VariantUserMovie,
			FirstLen:  100,
			SecondLen: 100,
			Delimiter: tokenizer.DefaultDelimiter,
		},
		Layers: LayersConfig{
			OutputDim:         1,
			Activation:        "tanh",
			OutputActivation:  "softmax",
			KernelInitializer: "glorot_uniform",
			BiasInitializer:   "zeros",
		},
		Pipeline: PipelineConfig{Workers: 4, BatchSize: 32},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. An empty path uses the defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.Embedding.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGloveFile)); v != "" {
		c.Embedding.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Pipeline.Workers = n
	}
	return nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Embedding.File == "" {
		return fmt.Errorf("embedding.file is required")
	}
	switch c.Sequence.Variant {
	case VariantUserMovie, VariantAspectReview:
	default:
		return fmt.Errorf("unknown sequence variant %q", c.Sequence.Variant)
	}
	if c.Sequence.FirstLen <= 0 || c.Sequence.SecondLen <= 0 {
		return fmt.Errorf("sequence lengths must be positive, got %d and %d", c.Sequence.FirstLen, c.Sequence.SecondLen)
	}
	if _, err := tokenizer.ByName(c.Sequence.Tokenizer, c.Sequence.Delimiter); err != nil {
		return err
	}
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("pipeline.workers must not be negative")
	}
	if c.Pipeline.BatchSize < 0 {
		return fmt.Errorf("pipeline.batch_size must not be negative")
	}
	return nil
}

// EmbeddingPath is where the GloVe file is read from.
func (c *Config) EmbeddingPath() string {
	return embedding.DefaultPath(c.Embedding.DataDir, c.Embedding.File)
}

// Variant builds the preprocess variant. The configured tokenizer and field
// names take precedence over the variant's own.
func (c *Config) Variant() (preprocess.Variant, error) {
	var v preprocess.Variant
	switch c.Sequence.Variant {
	case VariantAspectReview:
		v = preprocess.AspectReviewVariant(c.Sequence.FirstLen, c.Sequence.SecondLen, c.Sequence.Delimiter)
	default:
		v = preprocess.UserMovieVariant(c.Sequence.FirstLen, c.Sequence.SecondLen)
	}

	if c.Sequence.Tokenizer != "" {
		tok, err := tokenizer.ByName(c.Sequence.Tokenizer, c.Sequence.Delimiter)
		if err != nil {
			return preprocess.Variant{}, err
		}
		v.Tokenizer = tok
	}
	if len(c.Sequence.Fields) > 0 {
		v.Fields = c.Sequence.Fields
	}
	return v, nil
}
