package pir

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when a worker count of zero or less is given.
var DefaultWorkers = runtime.NumCPU()

func numWorkers(workers, n int) int {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// parallelFor calls fn(w, i) for every i in [0, n) on numWorkers(workers, n)
// goroutines. Worker w handles i = w, w+workers, ... so per-worker state
// indexed by w is never shared. It returns the first error encountered.
func parallelFor(workers, n int, fn func(w, i int) error) error {
	workers = numWorkers(workers, n)
	if workers == 1 {
		for i := 0; i < n; i++ {
			if err := fn(0, i); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < n; i += workers {
				if err := fn(w, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
