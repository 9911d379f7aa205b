package eval

import (
	"math"
	"regexp"
	"strconv"

	"github.com/grailbio/eagle/bamread"
	"github.com/grailbio/eagle/likelihood"
	"github.com/grailbio/eagle/refcache"
)

// lengthAlpha is eagle's LGALPHA: the per-base length-discount applied to
// the "elsewhere" (paralogous-source) probability, penalising reads longer
// than their inferred alignment length.
var lengthAlpha = math.Log(1.3)

// elsewhere approximates ln P(read | outside the reference), per eagle's
// comment in calc_likelihood: the mass of perfect-match plus
// edit-distance-1 configurations, discounted by read length.
func elsewhere(isMatch, delta []float64, read *bamread.Read) float64 {
	a := sumFloats(isMatch)
	e := likelihood.LogAddExp(a, a+likelihood.LogSumExp(delta))
	e -= lengthAlpha * float64(read.Length-read.InferredLength)
	return e
}

func sumFloats(a []float64) float64 {
	s := 0.0
	for _, v := range a {
		s += v
	}
	return s
}

// xaEntryRE parses one semicolon-delimited XA entry: chr,±pos,cigar,edit.
var xaEntryRE = regexp.MustCompile(`^([^,]+),([+-]?\d+),[^,]*,\d+$`)

// applyMultimap folds multi-mapping evidence into pout/prgu/prgv per
// eagle's calc_likelihood: every XA-listed secondary locus contributes
// another copy of elsewhere to pout, and non-overlapping secondary loci
// additionally get their own alignment probability folded into prgu/prgv
// (reverse-complementing the read's probability matrix when the secondary
// locus is on the opposite strand). Absent an XA tag, NH>1 approximates
// the same effect by scaling pout/prgu/prgv by ln(NH-1).
func applyMultimap(read *bamread.Read, matrix *likelihood.Matrix, elsewhereScore, prgu, prgv, pout float64, refs *refcache.Cache, tables *likelihood.Tables) (newPRGU, newPRGV, newPout float64) {
	newPRGU, newPRGV, newPout = prgu, prgv, pout

	if read.MultimapXA != "" {
		for _, entry := range splitXA(read.MultimapXA) {
			m := xaEntryRE.FindStringSubmatch(entry)
			if m == nil {
				continue
			}
			newPout = likelihood.LogAddExp(newPout, elsewhereScore)

			xaChr := m[1]
			xaPos, _ := strconv.Atoi(m[2])
			xaReverse := xaPos < 0
			pos := xaPos
			if pos < 0 {
				pos = -pos
			}
			if xaChr == read.Chr && absInt(pos-read.Pos) < read.Length {
				continue // secondary alignment overlaps the primary
			}

			ent, err := refs.Fetch(xaChr)
			if err != nil {
				continue
			}

			rowSource := matrix
			if xaReverse != read.Reverse {
				rowSource = likelihood.ReverseComplement(matrix)
			}
			readProb := likelihood.Calc(rowSource, ent.Seq, pos-1, nil, nil, tables, read.Qual)
			newPRGU = likelihood.LogAddExp(newPRGU, readProb)
			newPRGV = likelihood.LogAddExp(newPRGV, readProb)
		}
		return newPRGU, newPRGV, newPout
	}

	if read.MultimapNH > 1 {
		n := math.Log(float64(read.MultimapNH - 1))
		readProb := newPRGU + n
		newPout = likelihood.LogAddExp(newPout, elsewhereScore+n)
		newPRGU = likelihood.LogAddExp(newPRGU, readProb)
		newPRGV = likelihood.LogAddExp(newPRGV, readProb)
	}
	return newPRGU, newPRGV, newPout
}

func splitXA(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ';' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
