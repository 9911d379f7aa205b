// Package eval fetches reads and reference sequence for a hypothesis set,
// scores every enumerated combination, and aggregates the result into
// marginal or maximum-likelihood variant calls.
package eval

import (
	"math"

	"github.com/grailbio/eagle/hypothesis"
	"github.com/grailbio/eagle/likelihood"
)

// Priors, in log space, per spec: ref gets even odds; alt and het split the
// other half of the mass according to hetbias.
func refPrior() float64                { return math.Log(0.5) }
func altPrior(hetbias float64) float64 { return math.Log(0.5) + math.Log(1-hetbias) }
func hetPrior(hetbias float64) float64 { return math.Log(0.5) + math.Log(hetbias) }

// ambiguityThreshold is ln(2): the minimum log-odds gap eagle requires
// before counting a read as unambiguously supporting ref or alt.
const ambiguityThreshold = 0.6931471805599453

// Stats accumulates one combination's evidence across every read overlapping
// a hypothesis set (eagle's stats_t).
type Stats struct {
	Combo hypothesis.Combo

	// Index is this combination's position within the current hypothesis
	// set's evaluation (eagle's seti), used to attribute each read's
	// best-scoring combination for the haplotype mixture pass.
	Index int

	Ref, Alt, Het, Mut float64
	RefCount, AltCount int
	Seen               int

	// ReadPRGV[i] is logAddExp(prgv, phet) for read i, or -Inf if the read
	// was skipped (didn't span every variant in Combo). Indexed in lockstep
	// with the evaluator's read slice.
	ReadPRGV []float64
}

// NewStats allocates a Stats for combo over nreads reads.
func NewStats(combo hypothesis.Combo, nreads int) *Stats {
	s := &Stats{Combo: combo, ReadPRGV: make([]float64, nreads)}
	for i := range s.ReadPRGV {
		s.ReadPRGV[i] = math.Inf(-1)
	}
	return s
}

// Finalize computes Mut = logAddExp(Alt, Het), called once all reads have
// been folded in.
func (s *Stats) Finalize() {
	s.Mut = likelihood.LogAddExp(s.Alt, s.Het)
}

// HasVariant reports whether idx (a variant-set index) appears in Combo.
// Combo is ascending, so this binary-searches it (eagle's variant_find).
func (s *Stats) HasVariant(idx int) bool {
	lo, hi := 0, len(s.Combo)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case s.Combo[mid] == idx:
			return true
		case idx > s.Combo[mid]:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return false
}
