package likelihood

import (
	"testing"

	"github.com/grailbio/eagle/variant"
	"github.com/stretchr/testify/assert"
)

func TestConstructAltSeqEmptyComboIsIdentity(t *testing.T) {
	vars := variant.Set{{Chr: "chr1", Pos: 5, Ref: "A", Alt: "G"}}
	alt, err := ConstructAltSeq("ACGTACGT", nil, vars)
	assert.NoError(t, err)
	assert.Equal(t, "ACGTACGT", alt)
}

func TestConstructAltSeqSNP(t *testing.T) {
	vars := variant.Set{{Chr: "chr1", Pos: 3, Ref: "G", Alt: "T"}}
	alt, err := ConstructAltSeq("ACGTACGT", []int{0}, vars)
	assert.NoError(t, err)
	assert.Equal(t, "ACTTACGT", alt)
	assert.Equal(t, len("ACGTACGT"), len(alt))
}

func TestConstructAltSeqDeletion(t *testing.T) {
	vars := variant.Set{{Chr: "chr1", Pos: 3, Ref: "G", Alt: "-"}}
	refseq := "ACGTACGT"
	alt, err := ConstructAltSeq(refseq, []int{0}, vars)
	assert.NoError(t, err)
	assert.Equal(t, len(refseq)-1, len(alt))
	assert.Equal(t, "ACTACGT", alt)
}

func TestConstructAltSeqInsertion(t *testing.T) {
	vars := variant.Set{{Chr: "chr1", Pos: 3, Ref: "-", Alt: "TT"}}
	refseq := "ACGTACGT"
	alt, err := ConstructAltSeq(refseq, []int{0}, vars)
	assert.NoError(t, err)
	assert.Equal(t, len(refseq)+2, len(alt))
}

func TestConstructAltSeqMultipleVariantsShiftOffset(t *testing.T) {
	vars := variant.Set{
		{Chr: "chr1", Pos: 2, Ref: "C", Alt: "-"},   // deletion, shifts downstream positions left by 1
		{Chr: "chr1", Pos: 5, Ref: "A", Alt: "G"},   // position in *original* ref coordinates
	}
	refseq := "ACGTACGT"
	alt, err := ConstructAltSeq(refseq, []int{0, 1}, vars)
	assert.NoError(t, err)
	// After deleting pos2 'C': "AGTACGT"; then pos5 in original coords maps
	// to index 3 (0-based) in the offset-adjusted buffer, i.e. the 'A' of
	// "AGTACGT" that sat at index 4 of the original "ACGTACGT".
	assert.Equal(t, 7, len(alt))
}

func TestConstructAltSeqOutOfBounds(t *testing.T) {
	vars := variant.Set{{Chr: "chr1", Pos: 100, Ref: "A", Alt: "G"}}
	_, err := ConstructAltSeq("ACGT", []int{0}, vars)
	assert.Error(t, err)
}
