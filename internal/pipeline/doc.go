// Package pipeline runs a conversion: it discovers JSON files under the
// input directory, processes them on a bounded worker pool, and folds the
// results into one output stream and one set of counters.
//
// Files are:
//   - discover.go: directory walk with extension, pattern, and depth filters
//   - pool.go: errgroup worker pool feeding a single collector
//   - stats.go: atomic run counters and summaries
//   - runner.go: Run and the dry-run, validate, and convert modes
//   - errorlog.go: plain-text failure report
package pipeline
