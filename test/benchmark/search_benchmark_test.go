package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/tokenizer"
)

// BenchmarkQueryParse measures tokenizing and filtering queries of varying
// length.
func BenchmarkQueryParse(b *testing.B) {
	p := parser.New(tokenizer.NewWhitespace(), benchFilter)
	queries := map[string]string{
		"simple":    "cosine ranking",
		"stopwords": "the ranking of a document and the query",
		"long":      strings.Join(vocabulary, " "),
	}
	for name, q := range queries {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = p.Parse(q)
			}
		})
	}
}

// BenchmarkScore measures accumulating dot products for an increasing
// number of query terms.
func BenchmarkScore(b *testing.B) {
	idx := buildIndex(b, 10000)
	for _, n := range []int{1, 3, 5, 10} {
		b.Run(fmt.Sprintf("terms_%d", n), func(b *testing.B) {
			qv := ranker.BuildQueryVector(idx, vocabulary[:n])
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = ranker.Score(idx, qv)
			}
		})
	}
}

// BenchmarkTopK measures heap selection over a dense score map.
func BenchmarkTopK(b *testing.B) {
	idx := buildIndex(b, 10000)
	scores := ranker.Score(idx, ranker.BuildQueryVector(idx, vocabulary[:5]))
	for _, k := range []int{10, 100, 0} {
		b.Run(fmt.Sprintf("k_%d", k), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = ranker.TopK(scores, k)
			}
		})
	}
}

// BenchmarkExecutorParallel measures concurrent end-to-end query throughput
// against one shared index.
func BenchmarkExecutorParallel(b *testing.B) {
	idx := buildIndex(b, 10000)
	exec := executor.New(idx, parser.New(tokenizer.NewWhitespace(), benchFilter), nil, 10)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			q := vocabulary[i%len(vocabulary)] + " " + vocabulary[(i+4)%len(vocabulary)]
			if _, err := exec.Search(context.Background(), q, 10); err != nil {
				b.Fatal(err)
			}
			i++
		}
	})
}
