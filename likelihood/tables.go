// Package likelihood builds the quality-to-probability tables and the
// per-read alignment kernels (anchored, full-matrix DP, and SNP fast-path) that
// score a read against a reference or alternative sequence.
package likelihood

import "math"

// NTCodes is the width of the per-position probability row: 15 concrete
// IUPAC ambiguity codes plus the duplicate W/S slots eagle's nucleotide map
// carries for complement symmetry.
const NTCodes = 17

// MaxQual bounds the Phred quality range the tables are built over.
const MaxQual = 50

var lg3 = math.Log(3)

// seqntMap mirrors eagle's init_seqnt_map: a byte (upper-case nucleotide
// letter) to an index in [0, NTCodes). Codes 9 and 10 are never produced by
// this map directly (no letter points at them) but do appear as extra,
// self-complementary slots in baseMask below.
var seqntMap = buildSeqntMap()

func buildSeqntMap() [26]int {
	var m [26]int
	set := func(c byte, v int) { m[c-'A'] = v }
	set('A', 0)
	set('C', 1)
	set('H', 2) // A, C, T
	set('B', 3) // C, G, T
	set('R', 4) // A, G
	set('K', 5) // G, T
	set('S', 6) // G, C
	set('W', 7) // A, T
	set('N', 8)
	set('X', 8)
	set('M', 11) // A, C
	set('Y', 12) // C, T
	set('V', 13) // A, C, G
	set('D', 14) // A, G, T
	set('G', 15)
	set('T', 16)
	set('U', 16)
	return m
}

// NTCode returns the nucleotide-code index for an upper-case base letter.
func NTCode(base byte) int {
	if base < 'A' || base > 'Z' {
		return 8 // treat anything unrecognized as N
	}
	return seqntMap[base-'A']
}

// baseMask encodes each of the NTCodes codes as a 4-bit mask over {A,C,G,T},
// bit 0 = A, bit 1 = C, bit 2 = G, bit 3 = T. Codes 9 and 10 duplicate the
// self-complementary W and S codes, matching eagle's "W also in 9, S also in
// 10" comment.
var baseMask = [NTCodes]uint8{
	0: 1 << 0,                   // A
	1: 1 << 1,                   // C
	2: 1<<0 | 1<<1 | 1<<3,       // H: A,C,T
	3: 1<<1 | 1<<2 | 1<<3,       // B: C,G,T
	4: 1<<0 | 1<<2,              // R: A,G
	5: 1<<2 | 1<<3,              // K: G,T
	6: 1<<2 | 1<<1,              // S: G,C
	7: 1<<0 | 1<<3,              // W: A,T
	8: 1<<0 | 1<<1 | 1<<2 | 1<<3, // N: A,C,G,T
	9: 1<<0 | 1<<3,              // W (duplicate slot)
	10: 1<<2 | 1<<1,             // S (duplicate slot)
	11: 1<<0 | 1<<1,             // M: A,C
	12: 1<<1 | 1<<3,             // Y: C,T
	13: 1<<0 | 1<<1 | 1<<2,      // V: A,C,G
	14: 1<<0 | 1<<2 | 1<<3,      // D: A,G,T
	15: 1 << 2,                  // G
	16: 1 << 3,                  // T
}

func popcount4(m uint8) int {
	n := 0
	for ; m != 0; m >>= 1 {
		n += int(m & 1)
	}
	return n
}

// Tables holds the quality-indexed match/mismatch log-probability lookups.
type Tables struct {
	Match    [MaxQual]float64
	Mismatch [MaxQual]float64
}

// NewBasicTable builds the plain quality-to-probability table (eagle's
// init_q2p_table): for q>=1, a = -q*ln(10)/10; match = ln(1-exp(a));
// mismatch = a - ln(3). q=0 uses a=-0.01.
func NewBasicTable() *Tables {
	var t Tables
	for q := 0; q < MaxQual; q++ {
		a := qualToA(q)
		t.Match[q] = math.Log(1 - math.Exp(a))
		t.Mismatch[q] = a - lg3
	}
	return &t
}

// NewDPTable builds the DP-adjusted table (eagle's init_dp_q2p_table),
// folding in gap-open/gap-extend costs so that --dp scoring stays
// comparable in scale to the anchored model.
func NewDPTable(gapOpen, gapExtend float64) *Tables {
	var t Tables
	for q := 0; q < MaxQual; q++ {
		a := qualToA(q)
		logMatch := math.Log(1 - math.Exp(a))
		logMismatch := a - lg3
		t.Match[q] = logAddExp(logMatch+gapOpen, logMismatch-gapExtend)
		t.Mismatch[q] = logAddExp(logMismatch+gapOpen, logMatch-gapExtend)
	}
	return &t
}

func qualToA(q int) float64 {
	if q == 0 {
		return -0.01
	}
	return float64(q) / -10 * math.Ln10
}
