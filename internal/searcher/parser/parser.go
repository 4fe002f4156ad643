package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/tokenizer"
)

// QueryPlan is a free-text query reduced to the terms that will be scored.
// There are no operators: every surviving token is a scoring term.
type QueryPlan struct {
	RawQuery string
	// Terms are the surviving tokens in query order, repeats kept.
	Terms []string
	// Excluded are tokens dropped as stopwords or punctuation.
	Excluded []string
}

func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

// Parser applies the same tokenizer and filter the index was built with.
type Parser struct {
	tokenizer tokenizer.Tokenizer
	filter    *lexicon.Filter
}

func New(tok tokenizer.Tokenizer, filter *lexicon.Filter) *Parser {
	return &Parser{tokenizer: tok, filter: filter}
}

func (p *Parser) Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		RawQuery: query,
		Terms:    make([]string, 0),
		Excluded: make([]string, 0),
	}
	if strings.TrimSpace(query) == "" {
		return plan
	}
	for _, token := range p.tokenizer.Tokenize(query) {
		if p.filter.Excluded(token) {
			plan.Excluded = append(plan.Excluded, token)
			continue
		}
		plan.Terms = append(plan.Terms, token)
	}
	return plan
}
