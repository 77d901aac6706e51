package raster

import (
	"runtime"
	"sync/atomic"

	"github.com/gammazero/workerpool"
	"golang.org/x/sync/errgroup"
)

// tileRows is the number of grid rows handled by one unit of work.
const tileRows = 64

var concurrency atomic.Int64

func init() {
	concurrency.Store(int64(runtime.NumCPU()))
}

// SetConcurrency sets how many tiles are processed in parallel. Values below 1 reset to the CPU count.
func SetConcurrency(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	concurrency.Store(int64(n))
}

// Concurrency returns the current tile parallelism.
func Concurrency() int {
	return int(concurrency.Load())
}

// tile is a half-open range of linear pixel indexes covering whole rows.
type tile struct {
	start, end int
}

func tiles(g Grid) []tile {
	var out []tile
	step := tileRows * g.Width
	for start := 0; start < g.Len(); start += step {
		end := start + step
		if end > g.Len() {
			end = g.Len()
		}
		out = append(out, tile{start: start, end: end})
	}
	return out
}

// forEachTile runs fn over every tile of the grid on a worker pool.
// Each tile writes to a disjoint index range, so fn needs no locking.
func forEachTile(g Grid, fn func(t tile)) {
	wp := workerpool.New(Concurrency())
	for _, t := range tiles(g) {
		t := t
		wp.Submit(func() {
			fn(t)
		})
	}
	wp.StopWait()
}

// reduceTiles computes one partial aggregate per tile in parallel and merges
// the partials pairwise in tile order, so the result does not depend on scheduling.
func reduceTiles[T any](g Grid, partial func(t tile) T, merge func(a, b T) T) T {
	ts := tiles(g)
	parts := make([]T, len(ts))

	// The group only bounds how many tiles run at once; partials cannot fail.
	var eg errgroup.Group
	eg.SetLimit(Concurrency())
	for i, t := range ts {
		i, t := i, t
		eg.Go(func() error {
			parts[i] = partial(t)
			return nil
		})
	}
	_ = eg.Wait()

	if len(parts) == 0 {
		var zero T
		return zero
	}
	for len(parts) > 1 {
		next := make([]T, 0, (len(parts)+1)/2)
		for i := 0; i < len(parts); i += 2 {
			if i+1 < len(parts) {
				next = append(next, merge(parts[i], parts[i+1]))
			} else {
				next = append(next, parts[i])
			}
		}
		parts = next
	}
	return parts[0]
}
