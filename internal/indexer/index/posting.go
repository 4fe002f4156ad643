package index

import (
	"errors"
	"math"
	"sort"
)

var ErrAlreadyNormalized = errors.New("posting list already normalized")

// DocID identifies a document. It is assigned by the corpus naming scheme,
// never generated here.
type DocID uint64

type Posting struct {
	DocID  DocID   `json:"doc_id"`
	Weight float64 `json:"weight"`
}

// PostingList records, for one term, which documents contain it and with
// what weight. Weights hold raw term counts until Normalize replaces them
// with their L2-normalized values.
type PostingList struct {
	DocumentFrequency int
	Weights           map[DocID]float64
	normalized        bool
}

// NewPostingList creates the list for a term's first occurrence anywhere in
// the corpus.
func NewPostingList(doc DocID) *PostingList {
	return &PostingList{
		DocumentFrequency: 1,
		Weights:           map[DocID]float64{doc: 1.0},
	}
}

// RecordOccurrence adds one occurrence of the term in doc. The document
// frequency only moves when firstInDocument is set; the caller decides what
// "first" means.
func (p *PostingList) RecordOccurrence(doc DocID, firstInDocument bool) {
	if firstInDocument {
		p.DocumentFrequency++
	}
	p.Weights[doc] += 1.0
}

// Norm returns the L2 norm of the weight vector.
func (p *PostingList) Norm() float64 {
	var sum float64
	for _, doc := range p.sortedDocs() {
		w := p.Weights[doc]
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Normalize divides every weight by the vector's L2 norm. It must run once,
// after every document has been recorded.
func (p *PostingList) Normalize() error {
	if p.normalized {
		return ErrAlreadyNormalized
	}
	p.normalized = true
	magnitude := p.Norm()
	if magnitude == 0 {
		return nil
	}
	for doc, w := range p.Weights {
		p.Weights[doc] = w / magnitude
	}
	return nil
}

func (p *PostingList) Normalized() bool {
	return p.normalized
}

// Postings returns the entries sorted by DocID.
func (p *PostingList) Postings() []Posting {
	docs := p.sortedDocs()
	out := make([]Posting, 0, len(docs))
	for _, doc := range docs {
		out = append(out, Posting{DocID: doc, Weight: p.Weights[doc]})
	}
	return out
}

func (p *PostingList) sortedDocs() []DocID {
	docs := make([]DocID, 0, len(p.Weights))
	for doc := range p.Weights {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })
	return docs
}

type TermEntry struct {
	Term              string    `json:"term"`
	DocumentFrequency int       `json:"df"`
	Postings          []Posting `json:"postings"`
}

type DocStats struct {
	DocID         DocID `json:"doc_id"`
	RawTokens     int   `json:"raw_tokens"`
	IndexedTokens int   `json:"indexed_tokens"`
}
