// Package tokenizer provides the Token Source used by both the index builder
// and the query scorer. Every strategy returns an ordered sequence of
// lowercase tokens; exclusion filtering happens later in package lexicon.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
)

// Tokenizer converts raw text into lowercase tokens. Implementations must be
// safe for concurrent use once constructed.
type Tokenizer interface {
	Name() string
	Tokenize(text string) []string
}

// New returns the Tokenizer selected by cfg.Strategy.
func New(cfg config.TokenizerConfig) (Tokenizer, error) {
	switch cfg.Strategy {
	case config.TokenizerWhitespace, "":
		return NewWhitespace(), nil
	case config.TokenizerUnicode:
		return NewUnicode(), nil
	case config.TokenizerSegmenter:
		return NewSegmenter(cfg.Dictionaries)
	default:
		return nil, fmt.Errorf("unknown tokenizer strategy %q", cfg.Strategy)
	}
}

// Whitespace splits on Unicode whitespace and lowercases each field.
type Whitespace struct{}

func NewWhitespace() *Whitespace {
	return &Whitespace{}
}

func (Whitespace) Name() string { return config.TokenizerWhitespace }

func (Whitespace) Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}
