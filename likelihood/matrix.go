package likelihood

import "math"

// Matrix is a read-length-by-NTCodes table of log-probabilities: Row(i)[c]
// is ln P(observed base at read position i | the aligned reference base has
// nucleotide-code c).
type Matrix struct {
	length int
	data   []float64 // length * NTCodes, row-major
}

// Row returns the NTCodes-wide slice of log-probabilities for read
// position i.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*NTCodes : (i+1)*NTCodes]
}

// Length is the number of read positions the matrix covers.
func (m *Matrix) Length() int { return m.length }

// BuildOpts controls matrix construction.
type BuildOpts struct {
	Bisulfite bool
	Reverse   bool // read aligns to the reverse strand
}

// BuildMatrix constructs the per-read probability matrix from the read's
// sequence and quality, per eagle's set_prob_matrix: for each position, the
// observed base's compatible codes score is_match, incompatible codes score
// no_match, and codes partially overlapping the observed base's ambiguity
// set split mass proportionally to the overlap fraction. Bisulfite mode
// additionally scores a reference C (forward strand) or G (reverse strand)
// as a match when the read shows the converted T/A.
func BuildMatrix(seq string, qual []byte, tables *Tables, opts BuildOpts) *Matrix {
	n := len(seq)
	m := &Matrix{length: n, data: make([]float64, n*NTCodes)}
	for i := 0; i < n; i++ {
		isMatch := tables.Match[qual[i]]
		noMatch := tables.Mismatch[qual[i]]
		readCode := NTCode(seq[i])
		readMask := baseMask[readCode]
		readBits := popcount4(readMask)

		row := m.Row(i)
		for c := 0; c < NTCodes; c++ {
			cMask := baseMask[c]
			overlap := popcount4(cMask & readMask)
			switch {
			case overlap == 0:
				row[c] = noMatch
			case overlap == readBits && overlap == popcount4(cMask):
				row[c] = isMatch
			default:
				frac := float64(overlap) / float64(readBits)
				row[c] = logAddExp(isMatch+math.Log(frac), noMatch+math.Log(1-frac))
			}
		}

		if opts.Bisulfite {
			applyBisulfite(row, seq[i], opts.Reverse, isMatch)
		}
	}
	return m
}

// applyBisulfite scores the bisulfite-converted reference base as a match:
// a forward-strand C→T conversion means a reference C matches an observed
// T; a reverse-strand G→A conversion means a reference G matches an
// observed A.
func applyBisulfite(row []float64, observed byte, reverse bool, isMatch float64) {
	if !reverse && observed == 'T' {
		row[NTCode('C')] = isMatch
	} else if reverse && observed == 'A' {
		row[NTCode('G')] = isMatch
	}
}
