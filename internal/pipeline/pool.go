package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/jconvert/internal/processor"
)

// DefaultWorkers is the worker count used when none is configured.
func DefaultWorkers() int { return runtime.GOMAXPROCS(0) }

// processAll runs work on every path with at most workers in flight and
// hands each result to collect from a single goroutine, in completion
// order. Once ctx is cancelled no new paths are started; results already
// in flight are still collected. The first collect error stops new work and
// is returned after the pool drains.
func processAll(
	ctx context.Context,
	paths []string,
	workers int,
	work func(string) processor.Result,
	collect func(processor.Result) error,
) error {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan processor.Result, workers)

	var g errgroup.Group
	g.SetLimit(workers)

	go func() {
		defer close(results)
		for _, p := range paths {
			if ctx.Err() != nil {
				break
			}
			path := p
			g.Go(func() error {
				results <- work(path)
				return nil
			})
		}
		_ = g.Wait()
	}()

	var firstErr error
	for res := range results {
		if firstErr != nil {
			continue
		}
		if err := collect(res); err != nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}
