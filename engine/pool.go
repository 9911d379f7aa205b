package engine

import (
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/eagle/bamread"
	"github.com/grailbio/eagle/eval"
	"github.com/grailbio/eagle/refcache"
	"github.com/grailbio/eagle/variant"
)

// runPool opens one Evaluator per worker (each with its own BAM handle,
// since BAM indexes are not safely shareable across threads) and dispatches
// sets across o.Threads of them.
func runPool(sets []variant.Set, refs *refcache.Cache, o Opts) ([]eval.Result, error) {
	n := o.Threads
	if n <= 0 {
		n = 1
	}
	newWorker := func() (evaluate func(variant.Set) ([]eval.Result, error), closeWorker func(), err error) {
		reads, err := bamread.NewFetcher(o.BamPath, o.readOpts(), o.NoDup, o.PAO)
		if err != nil {
			return nil, nil, err
		}
		ev := eval.NewEvaluator(refs, reads, o.Eval)
		return ev.Evaluate, func() { reads.Close() }, nil //nolint:errcheck
	}
	return dispatch(sets, n, o.Verbose, newWorker)
}

// dispatch fans sets out across nWorkers goroutines, each built by
// newWorker, and returns the concatenated results. Grounded on
// markduplicates/mark_duplicates.go's generateBAM/generatePAM channel-fed
// worker pattern: a buffered channel of work plus a sync.WaitGroup, errors
// accumulated in an errors.Once so one worker's failure doesn't hide
// another's. Progress is logged roughly every 10% of sets drained, per
// eagle.c's print_status, suppressed under --verbose.
//
// Split out from runPool so the dispatch/aggregation logic can be tested
// against a fake evaluator, without needing a real BAM/BAI pair.
func dispatch(sets []variant.Set, nWorkers int, verbose bool, newWorker func() (evaluate func(variant.Set) ([]eval.Result, error), closeWorker func(), err error)) ([]eval.Result, error) {
	setCh := make(chan variant.Set, len(sets))
	for _, s := range sets {
		setCh <- s
	}
	close(setCh)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []eval.Result
		failed  errors.Once
		done    int
	)

	total := len(sets)
	logEvery := total / 10

	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			evaluate, closeWorker, err := newWorker()
			if err != nil {
				failed.Set(err)
				return
			}
			defer closeWorker()

			for set := range setCh {
				rows, err := evaluate(set)
				if err != nil {
					failed.Set(err)
					continue
				}
				mu.Lock()
				results = append(results, rows...)
				done++
				if !verbose && logEvery > 0 && done%logEvery == 0 {
					log.Printf("eagle: %d%% done (%d/%d hypothesis sets)", done*100/total, done, total)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return results, failed.Err()
}
