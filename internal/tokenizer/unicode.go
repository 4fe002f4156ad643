package tokenizer

import (
	"strings"

	bleveunicode "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
)

// Unicode segments text on UAX#29 word boundaries using bleve's unicode
// tokenizer. Whitespace and punctuation never become tokens.
type Unicode struct {
	inner *bleveunicode.UnicodeTokenizer
}

func NewUnicode() *Unicode {
	return &Unicode{inner: bleveunicode.NewUnicodeTokenizer()}
}

func (u *Unicode) Name() string { return config.TokenizerUnicode }

func (u *Unicode) Tokenize(text string) []string {
	stream := u.inner.Tokenize([]byte(text))
	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		tokens = append(tokens, strings.ToLower(string(tok.Term)))
	}
	return tokens
}
