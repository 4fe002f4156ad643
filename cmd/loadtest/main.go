package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var defaultQueries = []string{
	"inverted index",
	"document frequency",
	"term frequency",
	"cosine similarity",
	"query vector",
	"ranking documents",
	"unit length",
	"rare terms",
	"relevance score",
	"posting list",
}

type Options struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Limit       int
	Queries     []string
}

// Stats accumulates per-request outcomes from every worker.
type Stats struct {
	mu          sync.Mutex
	total       int64
	errors      int64
	zeroResults int64
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

func (s *Stats) Record(latency time.Duration, status int, hits int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if err != nil {
		s.errors++
		return
	}
	s.statusCodes[status]++
	if status < 200 || status >= 300 {
		s.errors++
		return
	}
	if hits == 0 {
		s.zeroResults++
	}
	s.latencies = append(s.latencies, latency)
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := Options{}
	var queriesFile string
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Drive concurrent queries against a running vsm serve instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Queries = defaultQueries
			if queriesFile != "" {
				q, err := readQueries(queriesFile)
				if err != nil {
					return err
				}
				opts.Queries = q
			}
			stats, err := Run(cmd.Context(), opts, out)
			if err != nil {
				return err
			}
			return Report(out, stats, opts.Duration)
		},
		SilenceUsage: true,
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.BaseURL, "url", "http://localhost:8080", "Base URL of the search service")
	flags.IntVarP(&opts.Concurrency, "concurrency", "c", 10, "Number of concurrent workers")
	flags.DurationVarP(&opts.Duration, "duration", "d", 30*time.Second, "Test duration")
	flags.IntVar(&opts.Limit, "limit", 10, "Results requested per query")
	flags.StringVarP(&queriesFile, "queries", "q", "", "File with one query per line")
	return cmd
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening queries file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries file: %w", err)
	}
	if len(queries) == 0 {
		return nil, errors.New("queries file is empty")
	}
	return queries, nil
}

// Run issues queries round-robin from opts.Concurrency workers until
// opts.Duration elapses.
func Run(ctx context.Context, opts Options, out io.Writer) (*Stats, error) {
	if len(opts.Queries) == 0 {
		return nil, errors.New("no queries to run")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	fmt.Fprintln(out, "=== VSM Search Load Test ===")
	fmt.Fprintf(out, "Target:      %s\n", opts.BaseURL)
	fmt.Fprintf(out, "Concurrency: %d\n", opts.Concurrency)
	fmt.Fprintf(out, "Duration:    %s\n", opts.Duration)
	fmt.Fprintf(out, "Queries:     %d unique\n\n", len(opts.Queries))

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        opts.Concurrency * 2,
			MaxIdleConnsPerHost: opts.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	stats := NewStats()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.Concurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				query := opts.Queries[i%len(opts.Queries)]
				start := time.Now()
				status, hits, err := search(ctx, client, opts, query)
				if ctx.Err() != nil {
					return nil
				}
				stats.Record(time.Since(start), status, hits, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func search(ctx context.Context, client *http.Client, opts Options, query string) (int, int, error) {
	target := fmt.Sprintf("%s/api/v1/search?q=%s&limit=%d", opts.BaseURL, url.QueryEscape(query), opts.Limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	var body struct {
		Results []json.RawMessage `json:"results"`
	}
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return resp.StatusCode, 0, fmt.Errorf("decoding response: %w", err)
		}
	}
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, len(body.Results), nil
}

// Report prints totals, latency percentiles and status codes. It fails when
// no request completed.
func Report(out io.Writer, stats *Stats, duration time.Duration) error {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	fmt.Fprintln(out, "=== Results ===")
	fmt.Fprintf(out, "Total Requests:  %d\n", stats.total)
	fmt.Fprintf(out, "Successful:      %d\n", stats.total-stats.errors)
	fmt.Fprintf(out, "Errors:          %d\n", stats.errors)
	fmt.Fprintf(out, "Zero Results:    %d\n", stats.zeroResults)
	if stats.total > 0 {
		fmt.Fprintf(out, "Error Rate:      %.2f%%\n", float64(stats.errors)/float64(stats.total)*100)
		fmt.Fprintf(out, "Requests/sec:    %.2f\n", float64(stats.total)/duration.Seconds())
	}

	if len(stats.latencies) > 0 {
		latencies := slices.Clone(stats.latencies)
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		fmt.Fprintln(out)
		fmt.Fprintln(out, "=== Latency ===")
		fmt.Fprintf(out, "Min:    %s\n", latencies[0])
		fmt.Fprintf(out, "Avg:    %s\n", avg)
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(out, "P%-2.0f:    %s\n", p, percentile(latencies, p))
		}
		fmt.Fprintf(out, "Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Status Codes ===")
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "  %d: %d\n", code, stats.statusCodes[code])
	}

	if stats.total == 0 {
		return errors.New("no requests completed; is the service running?")
	}
	return nil
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
