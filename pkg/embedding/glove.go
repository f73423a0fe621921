// Package embedding loads pre-trained word vectors and maps words to them.
package embedding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// GloveDir is the directory, relative to the data directory, holding the
// GloVe 6B vector files.
const GloveDir = "glove.6B"

// ErrMalformedLine is wrapped by Load for lines that cannot be parsed.
var ErrMalformedLine = errors.New("malformed embedding line")

// Vector is a word embedding.
type Vector []float32

// Float64s widens the vector for the float64 tensor ops.
func (v Vector) Float64s() []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// Map is a read-only lookup from token to its vector. It is safe for
// concurrent use once built.
type Map struct {
	vectors map[string]Vector
	dim     int
}

// NewMap builds a Map from vectors that all share one dimension. The vectors
// are copied.
func NewMap(vectors map[string]Vector) (*Map, error) {
	m := &Map{vectors: make(map[string]Vector, len(vectors))}
	for token, v := range vectors {
		if m.dim == 0 {
			m.dim = len(v)
		}
		if len(v) == 0 || len(v) != m.dim {
			return nil, fmt.Errorf("vector for %q has dimension %d, expected %d", token, len(v), m.dim)
		}
		m.vectors[token] = slices.Clone(v)
	}
	return m, nil
}

// Dim is the vector dimension, 0 for an empty map.
func (m *Map) Dim() int { return m.dim }

// Len is the number of tokens.
func (m *Map) Len() int { return len(m.vectors) }

// Lookup returns a copy of the vector for token and whether it was found.
func (m *Map) Lookup(token string) (Vector, bool) {
	v, ok := m.vectors[token]
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// Contains reports whether token has a vector.
func (m *Map) Contains(token string) bool {
	_, ok := m.vectors[token]
	return ok
}

// DefaultPath returns <dataDir>/glove.6B/<fname>.
func DefaultPath(dataDir, fname string) string {
	return filepath.Join(dataDir, GloveDir, fname)
}

// LoadFile reads a GloVe text file. A missing file yields an error wrapping
// os.ErrNotExist.
func LoadFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embeddings: %w", err)
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// Load parses GloVe text format: one token per line followed by its
// whitespace-separated components. Every line must have the dimension of the
// first. Blank lines are skipped. Any bad line fails the whole load, and so
// does input with no vectors at all.
func Load(r io.Reader) (*Map, error) {
	m := &Map{vectors: make(map[string]Vector)}

	scanner := bufio.NewScanner(r)
	// 300d vectors run to several kilobytes per line
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: token %q has no components: %w", lineNo, fields[0], ErrMalformedLine)
		}

		dim := len(fields) - 1
		if m.dim == 0 {
			m.dim = dim
		}
		if dim != m.dim {
			return nil, fmt.Errorf("line %d: token %q has dimension %d, expected %d: %w",
				lineNo, fields[0], dim, m.dim, ErrMalformedLine)
		}

		v := make(Vector, dim)
		for i, field := range fields[1:] {
			f, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: token %q component %d: %w: %v",
					lineNo, fields[0], i, ErrMalformedLine, err)
			}
			v[i] = float32(f)
		}
		m.vectors[fields[0]] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read embeddings: %w", err)
	}
	if len(m.vectors) == 0 {
		return nil, fmt.Errorf("no vectors in %d line(s): %w", lineNo, ErrMalformedLine)
	}

	return m, nil
}
