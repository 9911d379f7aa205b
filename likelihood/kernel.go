package likelihood

import "math"

// Calc computes ln P(read | seq, anchor) by walking the read's probability
// matrix against seq starting at pos (0-based), jumping spliceOffset[k]
// bases at read position splicePos[k] to skip intron regions (eagle's
// calc_prob). A read base whose aligned reference position falls outside
// seq contributes the position's mismatch score instead.
func Calc(m *Matrix, seq string, pos int, splicePos, spliceOffset []int, tables *Tables, qual []byte) float64 {
	total := 0.0
	refPos := pos
	splice := 0
	for i := 0; i < m.Length(); i++ {
		for splice < len(splicePos) && splicePos[splice] == i {
			refPos += spliceOffset[splice]
			splice++
		}
		if refPos < 0 || refPos >= len(seq) {
			total += tables.Mismatch[qual[i]]
		} else {
			code := NTCode(seq[refPos])
			total += m.Row(i)[code]
		}
		refPos++
	}
	return total
}

// CalcSNPs computes prgu and prgv in a single anchored pass over refseq,
// swapping in the alternative base only at positions covered by a
// same-length substitution in combo (eagle's calc_prob_snps fast path: used
// when no variant in combo is an indel).
func CalcSNPs(m *Matrix, combo []int, variants VariantLocator, refseq string, pos int, splicePos, spliceOffset []int, tables *Tables, qual []byte) (prgu, prgv float64) {
	refPos := pos
	splice := 0
	for i := 0; i < m.Length(); i++ {
		for splice < len(splicePos) && splicePos[splice] == i {
			refPos += spliceOffset[splice]
			splice++
		}
		if refPos < 0 || refPos >= len(refseq) {
			prgu += tables.Mismatch[qual[i]]
			prgv += tables.Mismatch[qual[i]]
			refPos++
			continue
		}
		refBase := refseq[refPos]
		altBase := refBase
		if alt, ok := variants.AltBaseAt(combo, refPos); ok {
			altBase = alt
		}
		row := m.Row(i)
		prgu += row[NTCode(refBase)]
		prgv += row[NTCode(altBase)]
		refPos++
	}
	return prgu, prgv
}

// VariantLocator answers "is refPos (0-based, within the reference window)
// covered by a same-length substitution in combo, and if so what's the
// alternative base there?" It lets CalcSNPs avoid constructing a full
// alt-sequence for the common no-indel case.
type VariantLocator interface {
	AltBaseAt(combo []int, refPos int) (base byte, ok bool)
}

// affine-gap DP states, per cell.
const (
	stateMatch = iota
	stateInsert // gap in reference (read base, no reference base)
	stateDelete // gap in read (reference base, no read base)
	numStates
)

// dpMatrix is a row-major matrix of numStates score planes, generalized
// from util/distance.go's single-plane Levenshtein matrix to a three-state
// affine-gap recurrence scored in log-probabilities rather than edit
// counts.
type dpMatrix struct {
	nRow, nCol int
	data       []float64 // nRow*nCol*numStates
}

func newDPMatrix(n, m int) dpMatrix {
	return dpMatrix{nRow: n, nCol: m, data: make([]float64, n*m*numStates)}
}

func (d dpMatrix) at(i, j, state int) float64 {
	return d.data[(i*d.nCol+j)*numStates+state]
}

func (d dpMatrix) set(i, j, state int, v float64) {
	d.data[(i*d.nCol+j)*numStates+state] = v
}

var negInf = math.Inf(-1)

// CalcDP computes ln P(read | seq) via semi-global (read fully consumed,
// seq free at both ends) affine-gap alignment over the full read-by-seq
// matrix (no band restriction), using the DP-adjusted
// match/mismatch tables baked into m. gapOpen and gapExtend are additive
// log-probability costs (eagle's calc_prob_dp).
func CalcDP(m *Matrix, seq string, gapOpen, gapExtend float64) float64 {
	n := m.Length()
	w := len(seq)
	d := newDPMatrix(n+1, w+1)

	for j := 0; j <= w; j++ {
		d.set(0, j, stateMatch, 0)
		d.set(0, j, stateInsert, negInf)
		d.set(0, j, stateDelete, negInf)
	}
	for i := 1; i <= n; i++ {
		d.set(i, 0, stateMatch, negInf)
		d.set(i, 0, stateInsert, gapOpen+float64(i-1)*gapExtend)
		d.set(i, 0, stateDelete, negInf)
	}

	for i := 1; i <= n; i++ {
		row := m.Row(i - 1)
		for j := 1; j <= w; j++ {
			score := row[NTCode(seq[j-1])]

			bestPrev := math.Max(d.at(i-1, j-1, stateMatch), math.Max(d.at(i-1, j-1, stateInsert), d.at(i-1, j-1, stateDelete)))
			d.set(i, j, stateMatch, score+bestPrev)

			openIns := d.at(i-1, j, stateMatch) + gapOpen
			extIns := d.at(i-1, j, stateInsert) + gapExtend
			d.set(i, j, stateInsert, math.Max(openIns, extIns))

			openDel := d.at(i, j-1, stateMatch) + gapOpen
			extDel := d.at(i, j-1, stateDelete) + gapExtend
			d.set(i, j, stateDelete, math.Max(openDel, extDel))
		}
	}

	finalScores := make([]float64, 0, (w+1)*numStates)
	for j := 0; j <= w; j++ {
		finalScores = append(finalScores, d.at(n, j, stateMatch), d.at(n, j, stateInsert), d.at(n, j, stateDelete))
	}
	return logSumExp(finalScores)
}

// ReverseComplement reverses m's rows and complements its code axis, used
// when a secondary alignment locus (from an XA tag) maps to the opposite
// strand from the primary alignment.
func ReverseComplement(m *Matrix) *Matrix {
	n := m.Length()
	out := &Matrix{length: n, data: make([]float64, n*NTCodes)}
	for i := 0; i < n; i++ {
		src := m.Row(n - 1 - i)
		dst := out.Row(i)
		for c := 0; c < NTCodes; c++ {
			dst[complementCode(c)] = src[c]
		}
	}
	return out
}

// complementCode maps a nucleotide code to its Watson-Crick complement:
// A<->T, C<->G; ambiguity codes map to the code of their complementary
// base set.
func complementCode(c int) int {
	mask := baseMask[c]
	var comp uint8
	if mask&1 != 0 {
		comp |= 1 << 3
	}
	if mask&(1<<3) != 0 {
		comp |= 1 << 0
	}
	if mask&(1<<1) != 0 {
		comp |= 1 << 2
	}
	if mask&(1<<2) != 0 {
		comp |= 1 << 1
	}
	if comp == mask {
		return c // self-complementary codes (N, W, S and their duplicate slots) map to themselves
	}
	for code, m := range baseMask {
		if m == comp {
			return code
		}
	}
	return c
}
