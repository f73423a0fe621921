// Package tokenizer splits review cells into tokens before embedding lookup.
package tokenizer

import (
	"fmt"
	"strings"
)

// DefaultDelimiter separates items of a list-literal cell such as
// "['great', 'food']".
const DefaultDelimiter = ", "

// Policy turns a cell value into tokens
type Policy interface {
	Tokenize(text string) []string
}

// Whitespace splits on runs of Unicode whitespace
type Whitespace struct{}

func (Whitespace) Tokenize(text string) []string {
	return strings.Fields(text)
}

// ListLiteral handles cells holding a serialized list: brackets and quotes
// are stripped and the remainder is split on Delimiter.
type ListLiteral struct {
	Delimiter string
}

var listPunctuation = strings.NewReplacer("[", "", "]", "", "'", "", `"`, "")

func (l ListLiteral) Tokenize(text string) []string {
	delim := l.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}

	parts := strings.Split(listPunctuation.Replace(text), delim)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Policy names accepted by ByName
const (
	WhitespaceName  = "whitespace"
	ListLiteralName = "list_literal"
)

// ByName returns the policy registered under name
func ByName(name, delimiter string) (Policy, error) {
	switch name {
	case WhitespaceName, "":
		return Whitespace{}, nil
	case ListLiteralName:
		return ListLiteral{Delimiter: delimiter}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer policy %q", name)
	}
}
