package index

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/huichen/murmur"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/lexicon"
)

// Index is the finalized, read-only inverted index. Nothing mutates it after
// Freeze returns, so any number of goroutines may query it without locking.
type Index struct {
	terms       map[string]*PostingList
	postings    map[string][]Posting
	docStats    map[DocID]DocStats
	stopwords   lexicon.WordSet
	totalTokens int
	fingerprint uint32
}

// Stats summarises an Index for logs, metrics and the stats endpoint.
type Stats struct {
	Documents   int    `json:"documents"`
	Terms       int    `json:"terms"`
	Postings    int    `json:"postings"`
	TotalTokens int    `json:"total_tokens"`
	Fingerprint uint32 `json:"fingerprint"`
}

// Freeze takes ownership of the given maps and returns the immutable Index.
// Every posting list must already be normalized. Sorted postings are
// materialized here so queries never sort.
func Freeze(terms map[string]*PostingList, docStats map[DocID]DocStats, stopwords lexicon.WordSet, totalTokens int) *Index {
	idx := &Index{
		terms:       terms,
		postings:    make(map[string][]Posting, len(terms)),
		docStats:    docStats,
		stopwords:   stopwords,
		totalTokens: totalTokens,
	}
	for term, list := range terms {
		idx.postings[term] = list.Postings()
	}
	idx.fingerprint = idx.computeFingerprint()
	return idx
}

// DocumentFrequency returns df for term, or 0 when the term is absent.
func (x *Index) DocumentFrequency(term string) int {
	if list, ok := x.terms[term]; ok {
		return list.DocumentFrequency
	}
	return 0
}

// Each calls fn for every (document, normalized weight) pair of term in
// ascending DocID order. It reports whether the term exists.
func (x *Index) Each(term string, fn func(doc DocID, weight float64)) bool {
	postings, ok := x.postings[term]
	if !ok {
		return false
	}
	for _, p := range postings {
		fn(p.DocID, p.Weight)
	}
	return true
}

// Contains reports whether term is in the vocabulary.
func (x *Index) Contains(term string) bool {
	_, ok := x.terms[term]
	return ok
}

// Terms returns the vocabulary sorted lexically.
func (x *Index) Terms() []string {
	out := make([]string, 0, len(x.terms))
	for term := range x.terms {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

func (x *Index) TotalTokens() int {
	return x.totalTokens
}

func (x *Index) DocumentCount() int {
	return len(x.docStats)
}

// DocumentLength returns the number of tokens of doc that survived filtering.
func (x *Index) DocumentLength(doc DocID) (int, bool) {
	s, ok := x.docStats[doc]
	return s.IndexedTokens, ok
}

// DocumentLengths returns a copy of the per-document filtered token counts.
func (x *Index) DocumentLengths() map[DocID]int {
	out := make(map[DocID]int, len(x.docStats))
	for doc, s := range x.docStats {
		out[doc] = s.IndexedTokens
	}
	return out
}

// DocStats returns the per-document counters.
func (x *Index) DocStats(doc DocID) (DocStats, bool) {
	s, ok := x.docStats[doc]
	return s, ok
}

func (x *Index) Stopwords() lexicon.WordSet {
	return x.stopwords
}

// Fingerprint is a murmur3 hash over the normalized index contents. Two
// builds of the same corpus with the same settings share a fingerprint.
func (x *Index) Fingerprint() uint32 {
	return x.fingerprint
}

// Snapshot returns every term with its postings, terms sorted lexically and
// postings by DocID.
func (x *Index) Snapshot() []TermEntry {
	terms := x.Terms()
	entries := make([]TermEntry, 0, len(terms))
	for _, term := range terms {
		entries = append(entries, TermEntry{
			Term:              term,
			DocumentFrequency: x.terms[term].DocumentFrequency,
			Postings:          append([]Posting(nil), x.postings[term]...),
		})
	}
	return entries
}

func (x *Index) Stats() Stats {
	postings := 0
	for _, list := range x.terms {
		postings += len(list.Weights)
	}
	return Stats{
		Documents:   len(x.docStats),
		Terms:       len(x.terms),
		Postings:    postings,
		TotalTokens: x.totalTokens,
		Fingerprint: x.fingerprint,
	}
}

func (x *Index) computeFingerprint() uint32 {
	buf := make([]byte, 0, 64*len(x.terms))
	var scratch [8]byte
	for _, entry := range x.Snapshot() {
		buf = append(buf, entry.Term...)
		buf = append(buf, 0)
		binary.LittleEndian.PutUint64(scratch[:], uint64(entry.DocumentFrequency))
		buf = append(buf, scratch[:]...)
		for _, p := range entry.Postings {
			binary.LittleEndian.PutUint64(scratch[:], uint64(p.DocID))
			buf = append(buf, scratch[:]...)
			binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(p.Weight))
			buf = append(buf, scratch[:]...)
		}
	}
	binary.LittleEndian.PutUint64(scratch[:], uint64(x.totalTokens))
	buf = append(buf, scratch[:]...)
	return murmur.Murmur3(buf)
}
