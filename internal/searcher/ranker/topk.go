package ranker

import (
	"container/heap"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
)

// TopK selects the k best non-zero scores with a bounded min-heap. k <= 0
// sorts and returns every non-zero score.
func TopK(scores map[index.DocID]float64, k int) []ScoredDoc {
	if k <= 0 {
		all := make([]ScoredDoc, 0, len(scores))
		for doc, score := range scores {
			if score != 0 {
				all = append(all, ScoredDoc{DocID: doc, Score: score})
			}
		}
		sort.Slice(all, func(i, j int) bool { return better(all[i], all[j]) })
		return all
	}

	h := &scoredDocHeap{}
	heap.Init(h)
	for doc, score := range scores {
		if score == 0 {
			continue
		}
		heap.Push(h, ScoredDoc{DocID: doc, Score: score})
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	result := make([]ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ScoredDoc)
	}
	return result
}

// better orders by score descending, then DocID ascending.
func better(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// scoredDocHeap keeps the worst retained document at the root.
type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool { return better(h[j], h[i]) }

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x any) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
