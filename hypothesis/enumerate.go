// Package hypothesis enumerates the bounded set of allele combinations the
// evaluator scores for a variant hypothesis set.
package hypothesis

import "container/heap"

// Combo is an ordered, strictly-ascending list of variant indices into a
// hypothesis set. Ascending order lets a combo's membership be tested with
// binary search (eagle's variant_find precondition).
type Combo []int

// Score evaluates a candidate Combo, returning the statistic ("mut") used
// to rank the heap frontier; eval wires this to its per-combination
// likelihood computation.
type Score func(Combo) float64

// Enumerate produces the bounded set of combinations to evaluate for a
// hypothesis set of size k, per spec: always every singleton; for k>=2,
// seed a max-heap keyed by Score with the singletons, repeatedly pop the
// best-scoring combo and push its one-variant extensions, until maxh
// derived (non-singleton) combinations have been scored or the heap is
// exhausted. maxh bounds only the derived count, matching eagle.c:649's
// `stats->len - var_set->len - 1 >= maxh` check, which is made at the top
// of the while loop, before a pop's children are derived — so every
// combination ever appended is always scored first.
func Enumerate(k int, score Score, maxh int) []Combo {
	if k <= 0 {
		return nil
	}

	combos := make([]Combo, 0, k)
	h := &comboHeap{}
	for i := 0; i < k; i++ {
		c := Combo{i}
		combos = append(combos, c)
		heap.Push(h, scoredCombo{combo: c, mut: score(c)})
	}
	if k < 2 {
		return combos
	}

	derived := 0
	for h.Len() > 0 && derived < maxh {
		best := heap.Pop(h).(scoredCombo)
		for next := best.combo[len(best.combo)-1] + 1; next < k; next++ {
			if contains(best.combo, next) {
				continue
			}
			child := make(Combo, len(best.combo)+1)
			copy(child, best.combo)
			child[len(child)-1] = next
			heap.Push(h, scoredCombo{combo: child, mut: score(child)})
			combos = append(combos, child)
			derived++
		}
	}
	return combos
}

func contains(c Combo, v int) bool {
	for _, x := range c {
		if x == v {
			return true
		}
	}
	return false
}

type scoredCombo struct {
	combo Combo
	mut   float64
}

// comboHeap is a max-heap over scoredCombo.mut, backed by container/heap —
// the idiomatic Go substitute for eagle's hand-rolled heap_push/heap_pop.
type comboHeap []scoredCombo

func (h comboHeap) Len() int            { return len(h) }
func (h comboHeap) Less(i, j int) bool  { return h[i].mut > h[j].mut }
func (h comboHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *comboHeap) Push(x interface{}) { *h = append(*h, x.(scoredCombo)) }
func (h *comboHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
