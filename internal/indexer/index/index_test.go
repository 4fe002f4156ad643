package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/lexicon"
)

// frozen builds {cat: 1x2, 2x1; sat: 1x1} over two documents.
func frozen(t *testing.T) *Index {
	t.Helper()
	cat := NewPostingList(1)
	cat.RecordOccurrence(1, false)
	cat.RecordOccurrence(2, true)
	sat := NewPostingList(1)
	require.NoError(t, cat.Normalize())
	require.NoError(t, sat.Normalize())

	return Freeze(
		map[string]*PostingList{"cat": cat, "sat": sat},
		map[DocID]DocStats{
			1: {DocID: 1, RawTokens: 5, IndexedTokens: 3},
			2: {DocID: 2, RawTokens: 1, IndexedTokens: 1},
		},
		lexicon.NewWordSet("the"),
		4,
	)
}

func TestIndexLookups(t *testing.T) {
	idx := frozen(t)

	assert.Equal(t, 2, idx.DocumentFrequency("cat"))
	assert.Equal(t, 1, idx.DocumentFrequency("sat"))
	assert.Equal(t, 0, idx.DocumentFrequency("dog"))
	assert.True(t, idx.Contains("cat"))
	assert.False(t, idx.Contains("dog"))
	assert.Equal(t, []string{"cat", "sat"}, idx.Terms())
	assert.Equal(t, 4, idx.TotalTokens())
	assert.Equal(t, 2, idx.DocumentCount())
	assert.True(t, idx.Stopwords().Contains("the"))

	n, ok := idx.DocumentLength(1)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = idx.DocumentLength(42)
	assert.False(t, ok)

	stats, ok := idx.DocStats(1)
	require.True(t, ok)
	assert.Equal(t, 5, stats.RawTokens)
}

func TestIndexEach(t *testing.T) {
	idx := frozen(t)

	var docs []DocID
	var sum float64
	found := idx.Each("cat", func(doc DocID, w float64) {
		docs = append(docs, doc)
		sum += w * w
	})
	assert.True(t, found)
	assert.Equal(t, []DocID{1, 2}, docs)
	assert.InDelta(t, 1.0, sum, 1e-9)

	assert.False(t, idx.Each("dog", func(DocID, float64) { t.Fatal("unexpected posting") }))
}

func TestIndexEachDoesNotAllocate(t *testing.T) {
	idx := frozen(t)

	var sum float64
	fn := func(_ DocID, w float64) { sum += w }
	allocs := testing.AllocsPerRun(100, func() {
		idx.Each("cat", fn)
	})
	assert.Zero(t, allocs)
	assert.Greater(t, sum, 0.0)
}

func TestIndexSnapshotIsCopy(t *testing.T) {
	idx := frozen(t)

	snap := idx.Snapshot()
	snap[0].Postings[0].Weight = 42

	idx.Each("cat", func(doc DocID, w float64) {
		assert.NotEqual(t, 42.0, w)
	})
}

func TestIndexDocumentLengthsIsCopy(t *testing.T) {
	idx := frozen(t)
	lengths := idx.DocumentLengths()
	lengths[1] = 100
	n, _ := idx.DocumentLength(1)
	assert.Equal(t, 3, n)
}

func TestIndexSnapshotAndStats(t *testing.T) {
	idx := frozen(t)

	snap := idx.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "cat", snap[0].Term)
	assert.Equal(t, 2, snap[0].DocumentFrequency)
	assert.Len(t, snap[0].Postings, 2)
	assert.Equal(t, "sat", snap[1].Term)

	stats := idx.Stats()
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Terms)
	assert.Equal(t, 3, stats.Postings)
	assert.Equal(t, 4, stats.TotalTokens)
	assert.Equal(t, idx.Fingerprint(), stats.Fingerprint)
}

func TestIndexFingerprintDeterministic(t *testing.T) {
	a := frozen(t)
	b := frozen(t)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	other := NewPostingList(1)
	require.NoError(t, other.Normalize())
	c := Freeze(map[string]*PostingList{"cat": other}, map[DocID]DocStats{1: {DocID: 1}}, lexicon.NewWordSet(), 1)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
