package likelihood

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicTableMonotonic(t *testing.T) {
	tbl := NewBasicTable()
	for q := 1; q < MaxQual-1; q++ {
		assert.Greater(t, tbl.Match[q+1], tbl.Match[q], "higher quality should mean a higher ln P(match)")
		assert.Less(t, tbl.Mismatch[q+1], tbl.Mismatch[q], "higher quality should mean a lower ln P(mismatch)")
	}
}

func TestBasicTableProbabilitiesSumToOne(t *testing.T) {
	tbl := NewBasicTable()
	for q := 1; q < MaxQual; q++ {
		total := math.Exp(tbl.Match[q]) + 3*math.Exp(tbl.Mismatch[q])
		assert.InDelta(t, 1.0, total, 1e-9)
	}
}

func TestNTCodeKnownBases(t *testing.T) {
	assert.Equal(t, 0, NTCode('A'))
	assert.Equal(t, 1, NTCode('C'))
	assert.Equal(t, 15, NTCode('G'))
	assert.Equal(t, 16, NTCode('T'))
	assert.Equal(t, 16, NTCode('U'))
	assert.Equal(t, 8, NTCode('N'))
}

func TestBaseMaskExactMatchOnly(t *testing.T) {
	// A concrete base's mask must contain exactly one bit.
	for _, c := range []byte{'A', 'C', 'G', 'T'} {
		assert.Equal(t, 1, popcount4(baseMask[NTCode(c)]))
	}
}

func TestDPTableFoldsInGapCosts(t *testing.T) {
	basic := NewBasicTable()
	dp := NewDPTable(-2, -1)
	assert.NotEqual(t, basic.Match[20], dp.Match[20])
}
