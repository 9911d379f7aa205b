package eval

import (
	"fmt"
	"math"

	"github.com/grailbio/eagle/bamread"
	"github.com/grailbio/eagle/hypothesis"
	"github.com/grailbio/eagle/likelihood"
	"github.com/grailbio/eagle/refcache"
	"github.com/grailbio/eagle/variant"
)

// Log-space mixture weights for the heterozygous allele-frequency model,
// tried at mu in {0.5, 0.1, 0.9} (eagle's LOG50/LOG10/LOG90).
var (
	log50 = math.Log(0.5)
	log10 = math.Log(0.1)
	log90 = math.Log(0.9)
)

// haplotypeShareThreshold is the fraction of reads whose best-scoring
// combination must be a given combination before it's considered for the
// pairwise haplotype mixture pass (eagle's hard-coded 0.1).
const haplotypeShareThreshold = 0.1

// Config holds the per-run tuning knobs eagle exposes as command-line flags.
type Config struct {
	Omega     float64 // prior weight given to the "elsewhere" (paralog) source
	HetBias   float64 // prior weight split between homozygous-alt and het
	GapOpen   float64
	GapExtend float64
	Bisulfite bool
	DP        bool
	LowMem    bool
	Verbose   bool
	MVH       bool
	MaxH      int
}

// Evaluator scores hypothesis sets against a reference cache and BAM
// fetcher, per eagle's evaluate()/calc_likelihood().
type Evaluator struct {
	Refs    *refcache.Cache
	Reads   *bamread.Fetcher
	Basic   *likelihood.Tables
	DPTable *likelihood.Tables
	Cfg     Config

	lgomega float64
}

// NewEvaluator builds an Evaluator, initializing both quality tables once.
func NewEvaluator(refs *refcache.Cache, reads *bamread.Fetcher, cfg Config) *Evaluator {
	return &Evaluator{
		Refs:    refs,
		Reads:   reads,
		Basic:   likelihood.NewBasicTable(),
		DPTable: likelihood.NewDPTable(cfg.GapOpen, cfg.GapExtend),
		Cfg:     cfg,
		lgomega: math.Log(cfg.Omega / (1 - cfg.Omega)),
	}
}

// Result is one output row: a single variant's call within a hypothesis set,
// or (under MVH) the single best-supported combination's variants.
type Result struct {
	Variant  variant.Variant
	Set      variant.Set
	Seen     int
	RefCount int
	AltCount int
	Prob     float64
	Odds     float64
}

// Evaluate scores every enumerated combination of set's variants and
// aggregates the result into marginal or maximum-likelihood output rows,
// per eagle's evaluate(). Returns (nil, nil) when no reads cover the region.
func (e *Evaluator) Evaluate(set variant.Set) ([]Result, error) {
	ref, err := e.Refs.Fetch(set.Chr())
	if err != nil {
		return nil, err
	}
	reads, err := e.Reads.Fetch(set.Chr(), set.FirstPos(), set.LastPos())
	if err != nil {
		return nil, err
	}
	if len(reads) == 0 {
		return nil, nil
	}
	return e.evaluateReads(set, reads, ref.Seq), nil
}

// evaluateReads is Evaluate's scoring pipeline, separated out so it can be
// driven directly from hand-built reads/reference sequence in tests without
// a real BAM/BAI pair.
func (e *Evaluator) evaluateReads(set variant.Set, reads []*bamread.Read, refseq string) []Result {
	statsByKey := map[string]*Stats{}
	seti := 0
	score := func(combo hypothesis.Combo) float64 {
		key := comboKey(combo)
		if s, ok := statsByKey[key]; ok {
			return s.Mut
		}
		s := e.calcLikelihood(set, combo, reads, refseq, seti)
		seti++
		statsByKey[key] = s
		return s.Mut
	}

	combos := hypothesis.Enumerate(len(set), score, e.Cfg.MaxH)
	stats := make([]*Stats, len(combos))
	for i, c := range combos {
		stats[i] = statsByKey[comboKey(c)]
	}

	pairs, prhap := e.haplotypeMixture(stats, reads)

	total := likelihood.LogAddExp(stats[0].Mut, stats[0].Ref)
	for _, s := range stats[1:] {
		total = likelihood.LogAddExp(total, s.Mut)
		total = likelihood.LogAddExp(total, s.Ref)
	}
	for _, p := range prhap {
		total = likelihood.LogAddExp(total, p)
	}

	if e.Cfg.MVH {
		best := 0
		r := stats[0].Mut - stats[0].Ref
		for i, s := range stats[1:] {
			if s.Mut-s.Ref > r {
				r = s.Mut - s.Ref
				best = i + 1
			}
		}
		s := stats[best]
		hasAlt := s.Mut
		grandTotal := likelihood.LogAddExp(total, s.Ref)
		var out []Result
		for _, idx := range s.Combo {
			out = append(out, Result{
				Variant:  set[idx],
				Set:      set,
				Seen:     s.Seen,
				RefCount: s.RefCount,
				AltCount: s.AltCount,
				Prob:     (hasAlt - grandTotal) / math.Ln10,
				Odds:     (hasAlt - s.Ref) / math.Ln10,
			})
		}
		return out
	}

	out := make([]Result, 0, len(set))
	for i := range set {
		var hasAlt, notAlt float64
		var hasAltSet, notAltSet bool
		acount, rcount, seen := -1, -1, -1
		for _, s := range stats {
			if s.HasVariant(i) {
				if !hasAltSet {
					hasAlt = s.Mut - s.Ref
					hasAltSet = true
				} else {
					hasAlt = likelihood.LogAddExp(hasAlt, s.Mut-s.Ref)
				}
				if s.Seen > seen {
					seen = s.Seen
				}
				if s.AltCount > acount {
					acount, rcount = s.AltCount, s.RefCount
				}
			} else {
				if !notAltSet {
					notAlt = s.Mut - s.Ref
					notAltSet = true
				} else {
					notAlt = likelihood.LogAddExp(notAlt, s.Mut-s.Ref)
				}
			}
		}
		for pi, pair := range pairs {
			if stats[pair[0]].HasVariant(i) || stats[pair[1]].HasVariant(i) {
				hasAlt = likelihood.LogAddExp(hasAlt, prhap[pi])
			} else {
				notAlt = likelihood.LogAddExp(notAlt, prhap[pi])
			}
		}
		out = append(out, Result{
			Variant:  set[i],
			Set:      set,
			Seen:     seen,
			RefCount: rcount,
			AltCount: acount,
			Prob:     (hasAlt - total) / math.Ln10,
			Odds:     (hasAlt - notAlt) / math.Ln10,
		})
	}
	return out
}

func comboKey(c hypothesis.Combo) string {
	return fmt.Sprint([]int(c))
}

// calcLikelihood scores one combination against every read overlapping set,
// per eagle's calc_likelihood.
func (e *Evaluator) calcLikelihood(set variant.Set, combo hypothesis.Combo, reads []*bamread.Read, refseq string, seti int) *Stats {
	s := NewStats(combo, len(reads))
	s.Index = seti

	hasIndel := false
	if !e.Cfg.LowMem {
		for _, idx := range combo {
			v := set[idx]
			if v.Ref == "-" || v.Alt == "-" || len(v.Ref) != len(v.Alt) {
				hasIndel = true
				break
			}
		}
	}

	var altseq string
	if hasIndel || e.Cfg.DP {
		var err error
		altseq, err = likelihood.ConstructAltSeq(refseq, combo, set)
		if err != nil {
			altseq = refseq
		}
	}

	locator := comboLocator{set: set}
	firstPos := set[combo[0]].Pos
	lastPos := set[combo[len(combo)-1]].Pos

	for ri, read := range reads {
		if read.Pos > firstPos || read.End < lastPos {
			continue
		}
		s.Seen++

		isMatch := make([]float64, read.Length)
		noMatch := make([]float64, read.Length)
		for i := 0; i < read.Length; i++ {
			isMatch[i] = e.Basic.Match[read.Qual[i]]
			noMatch[i] = e.Basic.Mismatch[read.Qual[i]]
		}

		buildTables := e.Basic
		if e.Cfg.DP {
			buildTables = e.DPTable
		}
		matrix := likelihood.BuildMatrix(read.Seq, read.Qual, buildTables, likelihood.BuildOpts{
			Bisulfite: e.Cfg.Bisulfite,
			Reverse:   read.Reverse,
		})

		delta := make([]float64, read.Length)
		for i := range delta {
			delta[i] = noMatch[i] - isMatch[i]
		}
		elsewhereScore := elsewhere(isMatch, delta, read)

		var prgu, prgv float64
		switch {
		case hasIndel:
			prgu = likelihood.Calc(matrix, refseq, read.Pos, read.SplicePos, read.SpliceOffset, e.Basic, read.Qual)
			prgv = likelihood.Calc(matrix, altseq, read.Pos, read.SplicePos, read.SpliceOffset, e.Basic, read.Qual)
		case e.Cfg.DP:
			prgu = likelihood.CalcDP(matrix, refseq, e.Cfg.GapOpen, e.Cfg.GapExtend)
			prgv = likelihood.CalcDP(matrix, altseq, e.Cfg.GapOpen, e.Cfg.GapExtend)
		default:
			prgu, prgv = likelihood.CalcSNPs(matrix, combo, locator, refseq, read.Pos, read.SplicePos, read.SpliceOffset, e.Basic, read.Qual)
		}

		pout := elsewhereScore
		prgu, prgv, pout = applyMultimap(read, matrix, elsewhereScore, prgu, prgv, pout, e.Refs, e.Basic)

		pout += e.lgomega
		prgu = likelihood.LogAddExp(pout, prgu)
		prgv = likelihood.LogAddExp(pout, prgv)

		if prgv > read.PRGV {
			read.Index = seti
			read.PRGU, read.PRGV, read.Pout = prgu, prgv, pout
		}

		phet := likelihood.LogAddExp(log50+prgv, log50+prgu)
		if h10 := likelihood.LogAddExp(log10+prgv, log90+prgu); h10 > phet {
			phet = h10
		}
		if h90 := likelihood.LogAddExp(log90+prgv, log10+prgu); h90 > phet {
			phet = h90
		}

		switch {
		case prgv > prgu && prgv-prgu > ambiguityThreshold && prgv-pout > ambiguityThreshold:
			s.AltCount++
		case prgu > prgv && prgu-prgv > ambiguityThreshold && prgu-pout > ambiguityThreshold:
			s.RefCount++
		}

		prgu += refPrior()
		prgv += altPrior(e.Cfg.HetBias)
		phet += hetPrior(e.Cfg.HetBias)
		s.Ref += prgu
		s.Alt += prgv
		s.Het += phet

		s.ReadPRGV[ri] = likelihood.LogAddExp(prgv, phet)
	}
	s.Finalize()
	return s
}

// haplotypeMixture evaluates pairwise mixtures of the combinations that best
// explain at least haplotypeShareThreshold of reads, per eagle's
// "heterozygous non-reference haplotypes" pass. Returns the candidate pairs
// (as indices into stats) and each pair's total log-probability.
func (e *Evaluator) haplotypeMixture(stats []*Stats, reads []*bamread.Read) (pairs [][2]int, prhap []float64) {
	counts := map[int]int{}
	for _, r := range reads {
		counts[r.Index]++
	}

	var haplotypes []int
	for i, s := range stats {
		if float64(counts[s.Index])/float64(len(reads)) >= haplotypeShareThreshold {
			haplotypes = append(haplotypes, i)
		}
	}
	if len(haplotypes) < 2 {
		return nil, nil
	}

	for a := 0; a < len(haplotypes); a++ {
		for b := a + 1; b < len(haplotypes); b++ {
			x, y := haplotypes[a], haplotypes[b]
			pairs = append(pairs, [2]int{x, y})

			total := 0.0
			for ri := range reads {
				px, py := stats[x].ReadPRGV[ri], stats[y].ReadPRGV[ri]
				if math.IsInf(px, -1) && math.IsInf(py, -1) {
					continue
				}
				phet := likelihood.LogAddExp(log50+py, log50+px)
				if h10 := likelihood.LogAddExp(log10+py, log90+px); h10 > phet {
					phet = h10
				}
				if h90 := likelihood.LogAddExp(log90+py, log10+px); h90 > phet {
					phet = h90
				}
				total += phet
			}
			prhap = append(prhap, total)
		}
	}
	return pairs, prhap
}

// comboLocator implements likelihood.VariantLocator over a combo's
// same-length substitutions, for the no-indel CalcSNPs fast path.
type comboLocator struct {
	set variant.Set
}

func (l comboLocator) AltBaseAt(combo []int, refPos int) (byte, bool) {
	for _, idx := range combo {
		v := l.set[idx]
		if v.Ref == "-" || v.Alt == "-" || len(v.Ref) != len(v.Alt) {
			continue
		}
		start := v.Pos - 1
		if refPos >= start && refPos < start+len(v.Ref) {
			return v.Alt[refPos-start], true
		}
	}
	return 0, false
}
