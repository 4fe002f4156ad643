package indexer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
)

var catDogCorpus = map[index.DocID]string{
	1: "the cat sat",
	2: "the dog sat",
	3: "cat dog cat",
}

func newTestBuilder(mode string) *Builder {
	return NewBuilder(
		tokenizer.NewWhitespace(),
		lexicon.NewFilter(lexicon.NewWordSet("the"), nil),
		Options{Workers: 2, DocumentFrequency: mode},
		nil,
	)
}

func build(t *testing.T, mode string, docs map[index.DocID]string) *index.Index {
	t.Helper()
	idx, err := newTestBuilder(mode).Build(context.Background(), corpus.NewStaticSource(docs))
	require.NoError(t, err)
	return idx
}

func postingsOf(idx *index.Index, term string) map[index.DocID]float64 {
	out := make(map[index.DocID]float64)
	idx.Each(term, func(doc index.DocID, w float64) { out[doc] = w })
	return out
}

func TestBuildCatDogScenario(t *testing.T) {
	idx := build(t, config.DocFreqDistinct, catDogCorpus)

	assert.Equal(t, []string{"cat", "dog", "sat"}, idx.Terms())
	assert.Equal(t, 2, idx.DocumentFrequency("cat"))
	assert.Equal(t, 2, idx.DocumentFrequency("dog"))
	assert.Equal(t, 2, idx.DocumentFrequency("sat"))

	cat := postingsOf(idx, "cat")
	require.Len(t, cat, 2)
	assert.InDelta(t, 1/math.Sqrt(5), cat[1], 1e-12)
	assert.InDelta(t, 2/math.Sqrt(5), cat[3], 1e-12)

	dog := postingsOf(idx, "dog")
	assert.InDelta(t, 1/math.Sqrt(2), dog[2], 1e-12)
	assert.InDelta(t, 1/math.Sqrt(2), dog[3], 1e-12)

	assert.Equal(t, 7, idx.TotalTokens())
	assert.Equal(t, map[index.DocID]int{1: 2, 2: 2, 3: 3}, idx.DocumentLengths())
	stats, ok := idx.DocStats(1)
	require.True(t, ok)
	assert.Equal(t, 3, stats.RawTokens)
	assert.True(t, idx.Stopwords().Contains("the"))
}

func TestBuildLegacyDocumentFrequency(t *testing.T) {
	idx := build(t, config.DocFreqLegacy, catDogCorpus)

	// "cat" is recorded twice in doc 3 after its creation in doc 1.
	assert.Equal(t, 3, idx.DocumentFrequency("cat"))
	assert.Equal(t, 2, idx.DocumentFrequency("dog"))

	cat := postingsOf(idx, "cat")
	assert.InDelta(t, 2/math.Sqrt(5), cat[3], 1e-12)
}

func TestBuildStopwordOnlyDocument(t *testing.T) {
	idx := build(t, config.DocFreqDistinct, map[index.DocID]string{
		1: "the cat",
		2: "the the THE",
	})

	for _, entry := range idx.Snapshot() {
		for _, p := range entry.Postings {
			assert.NotEqual(t, index.DocID(2), p.DocID, "term %q", entry.Term)
		}
	}
	n, ok := idx.DocumentLength(2)
	assert.True(t, ok)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, idx.TotalTokens())
}

func TestBuildSingleDocument(t *testing.T) {
	idx := build(t, config.DocFreqDistinct, map[index.DocID]string{7: "alpha beta alpha gamma"})

	for _, term := range idx.Terms() {
		assert.Equal(t, 1, idx.DocumentFrequency(term), term)
	}
	assert.Equal(t, 4, idx.TotalTokens())
	w := postingsOf(idx, "alpha")
	assert.InDelta(t, 1.0, w[7], 1e-12)
}

func TestBuildEmptyCorpus(t *testing.T) {
	idx := build(t, config.DocFreqDistinct, map[index.DocID]string{})
	assert.Empty(t, idx.Terms())
	assert.Equal(t, 0, idx.TotalTokens())
	assert.Equal(t, 0, idx.DocumentCount())
}

func randomCorpus(seed int64, docs, words int) map[index.DocID]string {
	r := rand.New(rand.NewSource(seed))
	vocab := []string{"the", "cat", "dog", "sat", "mat", "ran", "far", "red", "blue", "sky"}
	out := make(map[index.DocID]string, docs)
	for d := 1; d <= docs; d++ {
		n := 1 + r.Intn(words)
		toks := make([]string, n)
		for i := range toks {
			toks[i] = vocab[r.Intn(len(vocab))]
		}
		out[index.DocID(d)] = strings.Join(toks, " ")
	}
	return out
}

func TestBuildProperties(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			idx := build(t, config.DocFreqDistinct, randomCorpus(seed, 40, 30))
			for _, entry := range idx.Snapshot() {
				assert.Equal(t, len(entry.Postings), entry.DocumentFrequency, entry.Term)
				var sum float64
				for _, p := range entry.Postings {
					sum += p.Weight * p.Weight
				}
				assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9, entry.Term)
			}
		})
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	docs := randomCorpus(42, 60, 50)
	a := build(t, config.DocFreqDistinct, docs)
	b := build(t, config.DocFreqDistinct, docs)

	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestBuildDuplicateDocument(t *testing.T) {
	b := newTestBuilder(config.DocFreqDistinct)
	require.NoError(t, b.AddDocument(1, "cat"))
	err := b.AddDocument(1, "dog")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateDocument)
}

func TestBuilderFinalizedOnce(t *testing.T) {
	b := newTestBuilder(config.DocFreqDistinct)
	require.NoError(t, b.AddDocument(1, "cat"))
	_, err := b.Finalize()
	require.NoError(t, err)

	_, err = b.Finalize()
	assert.ErrorIs(t, err, ErrBuilderFinalized)
	assert.ErrorIs(t, b.AddDocument(2, "dog"), ErrBuilderFinalized)
}

type failingSource struct {
	corpus.Source
	failOn index.DocID
}

func (f failingSource) Read(ctx context.Context, ref corpus.Ref) (string, error) {
	if ref.ID == f.failOn {
		return "", fmt.Errorf("%w: %s", apperrors.ErrDocumentUnreadable, ref.Name)
	}
	return f.Source.Read(ctx, ref)
}

func TestBuildDocumentFailureIsFatal(t *testing.T) {
	src := failingSource{Source: corpus.NewStaticSource(catDogCorpus), failOn: 2}
	_, err := newTestBuilder(config.DocFreqDistinct).Build(context.Background(), src)
	require.Error(t, err)
	assert.True(t, apperrors.IsBuildFailure(err))
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestBuilder(config.DocFreqDistinct).Build(ctx, corpus.NewStaticSource(catDogCorpus))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildRecordsMetrics(t *testing.T) {
	m := metrics.New()
	b := NewBuilder(tokenizer.NewWhitespace(), lexicon.NewFilter(lexicon.NewWordSet("the"), nil), Options{}, m)
	_, err := b.Build(context.Background(), corpus.NewStaticSource(catDogCorpus))
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.DocsIndexedTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IndexTerms))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.IndexTotalTokens))
}
