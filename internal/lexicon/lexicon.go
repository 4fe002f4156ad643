// Package lexicon loads the stopword and punctuation exclusion sets and
// filters token sequences against them. The same Filter instance is used at
// build time and at query time.
package lexicon

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

// WordSet is a set of lowercase tokens.
type WordSet map[string]struct{}

// NewWordSet builds a set from the given words, lowercased and trimmed.
// Blank entries are ignored.
func NewWordSet(words ...string) WordSet {
	set := make(WordSet, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Contains reports whether token is in the set.
func (s WordSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Words returns the members sorted lexically.
func (s WordSet) Words() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// LoadWordSet reads a flat file with one token per line.
func LoadWordSet(path string) (WordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", apperrors.ErrLexiconUnreadable, path, err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrLexiconUnreadable, path, err)
	}
	return NewWordSet(words...), nil
}

// Filter drops excluded tokens from a token sequence.
type Filter struct {
	stopwords    WordSet
	punctuations WordSet
}

// NewFilter creates a Filter. A nil punctuation set disables punctuation
// filtering.
func NewFilter(stopwords, punctuations WordSet) *Filter {
	if stopwords == nil {
		stopwords = WordSet{}
	}
	return &Filter{stopwords: stopwords, punctuations: punctuations}
}

// Load reads the stopword file and, when punctuationPath is non-empty, the
// punctuation file. Any read failure is fatal to the caller's build.
func Load(stopwordsPath, punctuationPath string) (*Filter, error) {
	stop, err := LoadWordSet(stopwordsPath)
	if err != nil {
		return nil, fmt.Errorf("loading stopwords: %w", err)
	}
	var punct WordSet
	if punctuationPath != "" {
		punct, err = LoadWordSet(punctuationPath)
		if err != nil {
			return nil, fmt.Errorf("loading punctuations: %w", err)
		}
	}
	return NewFilter(stop, punct), nil
}

// Excluded reports whether token is a stopword or, when configured, a
// punctuation token.
func (f *Filter) Excluded(token string) bool {
	if f.stopwords.Contains(token) {
		return true
	}
	return f.punctuations != nil && f.punctuations.Contains(token)
}

// Apply returns the tokens that survive filtering, preserving order.
func (f *Filter) Apply(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if f.Excluded(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Stopwords returns the stopword set.
func (f *Filter) Stopwords() WordSet {
	return f.stopwords
}

// FiltersPunctuation reports whether a punctuation set is configured.
func (f *Filter) FiltersPunctuation() bool {
	return f.punctuations != nil
}
