package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Failure is one file that could not be converted or validated.
type Failure struct {
	Path   string
	Reason string
}

func sortFailures(fs []Failure) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].Path < fs[j].Path })
}

// WriteErrorLog writes a plain-text failure report to path, replacing any
// previous file. The report is written even when failures is empty.
func WriteErrorLog(path, runID string, failures []Failure, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create error log: %w", err)
	}
	w := bufio.NewWriter(f)

	fmt.Fprintln(w, "jconvert error log")
	fmt.Fprintf(w, "Generated: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(w, "Run ID: %s\n", runID)
	fmt.Fprintf(w, "Total errors: %d\n", len(failures))
	fmt.Fprintln(w, strings.Repeat("=", 50))
	for _, fl := range failures {
		fmt.Fprintf(w, "\nFile: %s\n", fl.Path)
		fmt.Fprintf(w, "Error: %s\n", fl.Reason)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write error log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close error log: %w", err)
	}
	return nil
}
