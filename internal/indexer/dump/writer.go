// Package dump writes the normalized index to a human-readable text file for
// inspection. The file is not read back by anything.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer/index"
)

// Writer dumps an index to a fixed path. Each write goes to <path>.tmp first
// and is renamed into place, so readers never see a partial file.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string {
	return w.path
}

// Write replaces the dump file with the contents of idx.
func (w *Writer) Write(idx *index.Index) error {
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating dump directory: %w", err)
		}
	}
	tmpPath := w.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp dump file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, idx); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("syncing dump file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, w.path); err != nil {
		return fmt.Errorf("renaming dump file: %w", err)
	}
	return nil
}

// Encode writes the text form of idx to out: a header line, then one line
// per term followed by its postings indented, terms sorted lexically and
// postings by DocID.
func Encode(out io.Writer, idx *index.Index) error {
	bw := bufio.NewWriter(out)
	stats := idx.Stats()
	fmt.Fprintf(bw, "# documents=%d terms=%d postings=%d total_tokens=%d fingerprint=%08x\n",
		stats.Documents, stats.Terms, stats.Postings, stats.TotalTokens, stats.Fingerprint)

	for _, entry := range idx.Snapshot() {
		fmt.Fprintf(bw, "%s df=%d\n", entry.Term, entry.DocumentFrequency)
		for _, p := range entry.Postings {
			bw.WriteString("  ")
			bw.WriteString(strconv.FormatUint(uint64(p.DocID), 10))
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(p.Weight, 'g', -1, 64))
			bw.WriteByte('\n')
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing index dump: %w", err)
	}
	return nil
}
