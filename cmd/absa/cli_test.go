package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/absa_attention/internal/config"
	"github.com/absa_attention/pkg/layers"
	"github.com/absa_attention/pkg/tensor"
)

const testGlove = `the 1 0 0
food 0 1 0
great 0 0 1
service 0.5 0.5 0
`

// setupWorkspace writes a GloVe file and a config pointing at it.
func setupWorkspace(t *testing.T, sequence string) string {
	t.Helper()
	dir := t.TempDir()
	gloveDir := filepath.Join(dir, "glove.6B")
	require.NoError(t, os.MkdirAll(gloveDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gloveDir, "tiny.txt"), []byte(testGlove), 0o644))

	cfgPath := filepath.Join(dir, "absa.yaml")
	body := "embedding:\n  data_dir: " + dir + "\n  file: tiny.txt\n" +
		"logging:\n  level: error\n" +
		"layers:\n  output_dim: 2\n  seed: 42\n" +
		"pipeline:\n  batch_size: 1\n" + sequence
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	return cfgPath
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	configPath, verbose, inputPath = "", false, "-"

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadRows(t *testing.T) {
	rows, err := readRows(strings.NewReader("userReviews,movieReviews\n\"the food\",great\nservice,\"\"\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "the food", rows[0]["userReviews"])
	assert.Equal(t, "", rows[1]["movieReviews"])

	_, err = readRows(strings.NewReader(""))
	assert.Error(t, err)

	_, err = readRows(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestEmbedCommand(t *testing.T) {
	cfgPath := setupWorkspace(t, "sequence:\n  first_len: 3\n  second_len: 2\n")

	out, err := execute(t, "userReviews,movieReviews,id\n\"the food unknown great\",great,7\n",
		"embed", "--config", cfgPath)
	require.NoError(t, err)

	scanner := bufio.NewScanner(strings.NewReader(out))
	require.True(t, scanner.Scan())
	var row struct {
		Fields    map[string]string `json:"fields"`
		Sequences map[string]struct {
			Vectors  [][]float32 `json:"vectors"`
			ValidLen int         `json:"valid_len"`
		} `json:"sequences"`
	}
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))

	assert.Equal(t, map[string]string{"id": "7"}, row.Fields)
	user := row.Sequences["userReviews"]
	assert.Len(t, user.Vectors, 3)
	assert.Equal(t, 3, user.ValidLen)
	assert.Equal(t, []float32{0, 0, 0}, user.Vectors[2], "unknown token uses the pad vector")
	movie := row.Sequences["movieReviews"]
	assert.Len(t, movie.Vectors, 2)
	assert.Equal(t, 1, movie.ValidLen)
}

func TestAspectsCommand(t *testing.T) {
	cfgPath := setupWorkspace(t, "")

	out, err := execute(t, "", "aspects", "--config", cfgPath, "food", "service")
	require.NoError(t, err)

	var res struct {
		Matrix [][]float64 `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, [][]float64{{0, 1, 0}, {0.5, 0.5, 0}}, res.Matrix)

	_, err = execute(t, "", "aspects", "--config", cfgPath, "food", "ambience")
	assert.ErrorContains(t, err, "ambience")
}

func TestScoreCommand(t *testing.T) {
	cfgPath := setupWorkspace(t, "sequence:\n  variant: aspect_review\n  first_len: 2\n  second_len: 4\n")

	input := "aspect_term,review_text\n" +
		"\"['food']\",\"['the', 'food', 'great']\"\n" +
		"\"['service']\",\"['great', 'service', 'the', 'food', 'the']\"\n"
	out, err := execute(t, input, "score", "--config", cfgPath)
	require.NoError(t, err)

	var report scoreReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "(None, 4, 3)", report.Shapes["input"])
	assert.Equal(t, "(None, 3)", report.Shapes["context"])
	assert.Equal(t, "(None, 4)", report.Shapes["self_attention_score"])
	assert.Equal(t, "(None, 4)", report.Shapes["attention_score"])
	assert.Equal(t, "(None, 4, 2)", report.Shapes["weighted_add"])

	require.Len(t, report.Rows, 2)
	for _, row := range report.Rows {
		assert.InDelta(t, 1.0, floats.Sum(row.SelfAttention), 1e-9)
		assert.Len(t, row.AttentionScore, 4)
		require.Len(t, row.Projection, 4)
		for _, step := range row.Projection {
			assert.Len(t, step, 2)
		}
	}
	// padded steps are zero vectors, so they project to zero
	assert.Equal(t, []float64{0, 0}, report.Rows[0].Projection[3])
	// the first review has three tokens, so its padded step gets no weight
	assert.InDelta(t, 0.0, report.Rows[0].SelfAttention[3], 1e-12)
}

func TestSeedZeroIsRepeatable(t *testing.T) {
	seed := uint64(0)
	lc := config.Default().Layers
	lc.Seed = &seed

	build := func() []float64 {
		l, err := layers.NewSelfAttentionScore(layerOptions(lc, "self_attention_score")...)
		require.NoError(t, err)
		require.NoError(t, l.Build(tensor.Shape{0, 4, 3}))
		return l.Kernel.Vector()
	}
	assert.Equal(t, build(), build())

	lc.Seed = nil
	assert.Empty(t, seedOptions(lc))
}

func TestMissingEmbeddingFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "absa.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("embedding:\n  data_dir: "+dir+"\n  file: none.txt\nlogging:\n  level: error\n"), 0o644))

	_, err := execute(t, "userReviews,movieReviews\na,b\n", "embed", "--config", cfgPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
