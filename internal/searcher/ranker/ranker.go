package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
)

// DefaultTopK is the number of results returned when no limit is given.
const DefaultTopK = 10

type ScoredDoc struct {
	DocID index.DocID `json:"doc_id"`
	Score float64     `json:"score"`
}

// Index is the read-only view of the inverted index the scorer needs.
type Index interface {
	DocumentFrequency(term string) int
	TotalTokens() int
	Each(term string, fn func(doc index.DocID, weight float64)) bool
}

// TermWeight is one component of a query vector.
type TermWeight struct {
	Term   string  `json:"term"`
	TF     int     `json:"tf"`
	DF     int     `json:"df"`
	IDF    float64 `json:"idf"`
	Weight float64 `json:"weight"`
}

// InVocabulary reports whether any document contains the term.
func (t TermWeight) InVocabulary() bool {
	return t.DF > 0
}

// QueryVector holds one TermWeight per distinct query term, sorted by term.
type QueryVector []TermWeight

// BuildQueryVector counts term frequency in terms and weighs each distinct
// term by tf * log10(TotalTokens / df). Terms no document contains get
// weight 0 and never contribute to a score.
func BuildQueryVector(idx Index, terms []string) QueryVector {
	tf := make(map[string]int, len(terms))
	for _, term := range terms {
		tf[term]++
	}
	total := float64(idx.TotalTokens())
	qv := make(QueryVector, 0, len(tf))
	for term, count := range tf {
		tw := TermWeight{Term: term, TF: count, DF: idx.DocumentFrequency(term)}
		if tw.DF > 0 {
			tw.IDF = math.Log10(total / float64(tw.DF))
			tw.Weight = float64(count) * tw.IDF
		}
		qv = append(qv, tw)
	}
	sort.Slice(qv, func(i, j int) bool { return qv[i].Term < qv[j].Term })
	return qv
}

// OutOfVocabulary returns the query terms absent from the index.
func (qv QueryVector) OutOfVocabulary() []string {
	var out []string
	for _, tw := range qv {
		if !tw.InVocabulary() {
			out = append(out, tw.Term)
		}
	}
	return out
}

// Score accumulates weight * normalized document weight for every posting of
// every in-vocabulary term. Terms are visited in sorted order so repeated
// runs add in the same sequence.
func Score(idx Index, qv QueryVector) map[index.DocID]float64 {
	scores := make(map[index.DocID]float64)
	for _, tw := range qv {
		if !tw.InVocabulary() {
			continue
		}
		weight := tw.Weight
		idx.Each(tw.Term, func(doc index.DocID, w float64) {
			scores[doc] += w * weight
		})
	}
	return scores
}

// Rank scores qv against idx and returns at most limit documents with a
// non-zero score, highest first, ties by ascending DocID. A limit of zero or
// less returns every match.
func Rank(idx Index, qv QueryVector, limit int) []ScoredDoc {
	return TopK(Score(idx, qv), limit)
}
