// Package preprocess turns review rows into fixed-length sequences of word
// vectors ready for the attention layers.
package preprocess

import (
	"errors"
	"fmt"
	"slices"

	"github.com/absa_attention/internal/tokenizer"
	"github.com/absa_attention/pkg/embedding"
)

// ErrMissingField is returned when a row lacks one of the configured fields.
var ErrMissingField = errors.New("missing field")

// Row is one record of review data keyed by column name.
type Row map[string]string

// FieldSpec names a text field and the fixed length its sequence is cut or
// padded to.
type FieldSpec struct {
	Name   string `yaml:"name"`
	MaxLen int    `yaml:"max_len"`
}

// Variant is a pair of fields together with the tokenizer their cells need.
type Variant struct {
	Fields    []FieldSpec
	Tokenizer tokenizer.Policy
}

// UserMovieVariant covers whitespace-separated user and movie review text.
func UserMovieVariant(userLen, movieLen int) Variant {
	return Variant{
		Fields: []FieldSpec{
			{Name: "userReviews", MaxLen: userLen},
			{Name: "movieReviews", MaxLen: movieLen},
		},
		Tokenizer: tokenizer.Whitespace{},
	}
}

// AspectReviewVariant covers aspect terms and review text stored as list
// literals.
func AspectReviewVariant(aspectLen, reviewLen int, delimiter string) Variant {
	return Variant{
		Fields: []FieldSpec{
			{Name: "aspect_term", MaxLen: aspectLen},
			{Name: "review_text", MaxLen: reviewLen},
		},
		Tokenizer: tokenizer.ListLiteral{Delimiter: delimiter},
	}
}

// Sequence is a fixed-length run of vectors. The first ValidLen entries come
// from tokens and the rest are padding. Every entry is its own copy.
type Sequence struct {
	Vectors  []embedding.Vector `json:"vectors"`
	ValidLen int                `json:"valid_len"`
}

// EmbeddedRow is a Row whose configured fields were replaced by sequences.
// Fields holds every other column unchanged.
type EmbeddedRow struct {
	Fields    map[string]string   `json:"fields,omitempty"`
	Sequences map[string]Sequence `json:"sequences"`
}

// EmbedPadFunc converts one row.
type EmbedPadFunc func(Row) (*EmbeddedRow, error)

// PadVector returns a dim-length vector with every component set to fill.
func PadVector(dim int, fill float32) embedding.Vector {
	v := make(embedding.Vector, dim)
	for i := range v {
		v[i] = fill
	}
	return v
}

// NewEmbedPadFunc returns a function that tokenizes each configured field,
// keeps at most MaxLen tokens, maps each token to its vector (pad when the
// token is unknown) and right-pads with pad up to MaxLen.
func NewEmbedPadFunc(v Variant, pad embedding.Vector, m *embedding.Map) (EmbedPadFunc, error) {
	if m == nil {
		return nil, fmt.Errorf("embedding map is nil")
	}
	if len(v.Fields) == 0 {
		return nil, fmt.Errorf("no fields configured")
	}
	if v.Tokenizer == nil {
		return nil, fmt.Errorf("no tokenizer configured")
	}
	if m.Len() == 0 {
		return nil, fmt.Errorf("embedding map is empty")
	}
	if len(pad) != m.Dim() {
		return nil, fmt.Errorf("pad vector has dimension %d, embeddings have %d", len(pad), m.Dim())
	}
	for _, f := range v.Fields {
		if f.MaxLen <= 0 {
			return nil, fmt.Errorf("field %q: max length must be positive, got %d", f.Name, f.MaxLen)
		}
	}

	fields := append([]FieldSpec(nil), v.Fields...)
	pad = slices.Clone(pad)
	tok := v.Tokenizer

	return func(row Row) (*EmbeddedRow, error) {
		out := &EmbeddedRow{
			Fields:    make(map[string]string, len(row)),
			Sequences: make(map[string]Sequence, len(fields)),
		}
		for k, val := range row {
			out.Fields[k] = val
		}

		for _, f := range fields {
			text, ok := row[f.Name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingField, f.Name)
			}
			delete(out.Fields, f.Name)
			out.Sequences[f.Name] = embedSequence(tok.Tokenize(text), f.MaxLen, pad, m)
		}
		return out, nil
	}, nil
}

func embedSequence(tokens []string, maxLen int, pad embedding.Vector, m *embedding.Map) Sequence {
	if len(tokens) > maxLen {
		tokens = tokens[:maxLen]
	}

	vectors := make([]embedding.Vector, maxLen)
	for i, token := range tokens {
		if v, ok := m.Lookup(token); ok {
			vectors[i] = v
		} else {
			vectors[i] = slices.Clone(pad)
		}
	}
	for i := len(tokens); i < maxLen; i++ {
		vectors[i] = slices.Clone(pad)
	}

	return Sequence{Vectors: vectors, ValidLen: len(tokens)}
}
