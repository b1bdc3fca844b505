package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/backmassage/jconvert/internal/display"
)

// RunStats tracks counters and byte totals for one run. Total and the start
// time are fixed at construction; everything else is updated atomically by
// workers and the collector.
type RunStats struct {
	Total int

	start        time.Time
	success      atomic.Int64
	errors       atomic.Int64
	invalid      atomic.Int64
	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
}

// NewRunStats starts the clock for a run over total files.
func NewRunStats(total int) *RunStats {
	return &RunStats{Total: total, start: time.Now()}
}

func (s *RunStats) IncSuccess()             { s.success.Add(1) }
func (s *RunStats) IncError()               { s.errors.Add(1) }
func (s *RunStats) IncInvalid()             { s.invalid.Add(1) }
func (s *RunStats) AddBytesRead(n int64)    { s.bytesRead.Add(n) }
func (s *RunStats) AddBytesWritten(n int64) { s.bytesWritten.Add(n) }

func (s *RunStats) Succeeded() int64    { return s.success.Load() }
func (s *RunStats) Errored() int64      { return s.errors.Load() }
func (s *RunStats) Invalid() int64      { return s.invalid.Load() }
func (s *RunStats) BytesRead() int64    { return s.bytesRead.Load() }
func (s *RunStats) BytesWritten() int64 { return s.bytesWritten.Load() }

// Processed is the number of files with a recorded outcome. It equals Total
// once an uninterrupted run completes.
func (s *RunStats) Processed() int64 {
	return s.Succeeded() + s.Errored() + s.Invalid()
}

// Failed counts files that did not succeed in either mode.
func (s *RunStats) Failed() int64 { return s.Errored() + s.Invalid() }

// SuccessRate is successes over Total, or 0 for an empty run.
func (s *RunStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded()) / float64(s.Total)
}

// Elapsed returns the time since NewRunStats.
func (s *RunStats) Elapsed() time.Duration { return time.Since(s.start) }

// ConversionSummary renders the end-of-run report for convert mode.
func (s *RunStats) ConversionSummary() []string {
	return []string{
		"Total files:   " + display.FormatCount(int64(s.Total)),
		"Succeeded:     " + display.FormatCount(s.Succeeded()),
		"Failed:        " + display.FormatCount(s.Errored()),
		"Bytes read:    " + display.FormatBytes(s.BytesRead()),
		"Bytes written: " + display.FormatBytes(s.BytesWritten()),
		"Success rate:  " + display.FormatPercent(s.SuccessRate()),
		"Elapsed:       " + display.FormatDuration(s.Elapsed()),
	}
}

// ValidationSummary renders the end-of-run report for validate-only mode.
func (s *RunStats) ValidationSummary() []string {
	return []string{
		"Total files:   " + display.FormatCount(int64(s.Total)),
		"Valid:         " + display.FormatCount(s.Succeeded()),
		"Invalid:       " + display.FormatCount(s.Invalid()),
		"Bytes read:    " + display.FormatBytes(s.BytesRead()),
		"Valid rate:    " + display.FormatPercent(s.SuccessRate()),
		"Elapsed:       " + display.FormatDuration(s.Elapsed()),
	}
}
