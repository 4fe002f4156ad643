package mcptool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/tokenizer"
)

func newExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	tok := tokenizer.NewWhitespace()
	filter := lexicon.NewFilter(lexicon.NewWordSet("the"), nil)
	idx, err := indexer.NewBuilder(tok, filter, indexer.Options{}, nil).Build(context.Background(), corpus.NewStaticSource(map[index.DocID]string{
		1: "the cat sat",
		2: "the dog sat",
		3: "cat dog cat",
	}))
	require.NoError(t, err)
	return executor.New(idx, parser.New(tok, filter), nil, 10)
}

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, string, int) (*executor.SearchResult, error) {
	return nil, errors.New("index not ready")
}

type recordingSearcher struct {
	limit int
}

func (s *recordingSearcher) Search(_ context.Context, query string, limit int) (*executor.SearchResult, error) {
	s.limit = limit
	return &executor.SearchResult{Query: query}, nil
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandle(t *testing.T) {
	agg := analytics.NewAggregator()
	h := NewSearchHandler(newExecutor(t), agg, 10, 100)

	result, _, err := h.Handle(context.Background(), &mcp.CallToolRequest{}, SearchArgument{Query: "cat dog unicorn"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	lines := strings.Split(strings.TrimSpace(text(t, result)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Doc  3 - Relevance "))
	assert.Equal(t, "Unknown terms: unicorn", lines[3])
	assert.Equal(t, int64(1), agg.Stats().TotalSearches)
}

func TestHandleEmptyQuery(t *testing.T) {
	h := NewSearchHandler(newExecutor(t), nil, 10, 100)
	result, _, err := h.Handle(context.Background(), &mcp.CallToolRequest{}, SearchArgument{Query: "   "})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Query cannot be empty", text(t, result))
}

func TestHandleNoMatches(t *testing.T) {
	h := NewSearchHandler(newExecutor(t), nil, 10, 100)
	result, _, err := h.Handle(context.Background(), &mcp.CallToolRequest{}, SearchArgument{Query: "the"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "No matching documents\n", text(t, result))
}

func TestHandleSearchFailure(t *testing.T) {
	h := NewSearchHandler(failingSearcher{}, nil, 10, 100)
	result, _, err := h.Handle(context.Background(), &mcp.CallToolRequest{}, SearchArgument{Query: "cat"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "index not ready")
}

func TestHandleLimit(t *testing.T) {
	s := &recordingSearcher{}
	h := NewSearchHandler(s, nil, 10, 50)
	ctx := context.Background()

	_, _, err := h.Handle(ctx, &mcp.CallToolRequest{}, SearchArgument{Query: "cat"})
	require.NoError(t, err)
	assert.Equal(t, 10, s.limit)

	_, _, err = h.Handle(ctx, &mcp.CallToolRequest{}, SearchArgument{Query: "cat", Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, s.limit)

	_, _, err = h.Handle(ctx, &mcp.CallToolRequest{}, SearchArgument{Query: "cat", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, s.limit)
}

func TestNewServer(t *testing.T) {
	h := NewSearchHandler(newExecutor(t), nil, 10, 100)
	assert.NotNil(t, NewServer(h, "test"))
	assert.Equal(t, ToolName, h.GetToolDefinition().Name)
}
