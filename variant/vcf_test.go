package variant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadVCFUsesCorrectColumns(t *testing.T) {
	// CHROM POS ID REF ALT — the ID column must be skipped, not read as REF.
	in := "chr1\t100\trs123\tA\tG\n"
	variants, err := ReadVCF(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Equal(t, []Variant{{Chr: "chr1", Pos: 100, Ref: "A", Alt: "G"}}, variants)
}

func TestReadVCFSkipsBlankAndCommentLines(t *testing.T) {
	in := "#CHROM\tPOS\tID\tREF\tALT\n\nchr1\t50\t.\tC\tT\n"
	variants, err := ReadVCF(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Equal(t, []Variant{{Chr: "chr1", Pos: 50, Ref: "C", Alt: "T"}}, variants)
}

func TestReadVCFExpandsMultiAllelicCrossProduct(t *testing.T) {
	in := "chr1\t10\t.\tA,AT\tG,C\n"
	variants, err := ReadVCF(strings.NewReader(in))
	assert.NoError(t, err)
	assert.ElementsMatch(t, []Variant{
		{Chr: "chr1", Pos: 10, Ref: "A", Alt: "G"},
		{Chr: "chr1", Pos: 10, Ref: "A", Alt: "C"},
		{Chr: "chr1", Pos: 10, Ref: "AT", Alt: "G"},
		{Chr: "chr1", Pos: 10, Ref: "AT", Alt: "C"},
	}, variants)
}

func TestReadVCFDropsSentinelAltTokens(t *testing.T) {
	in := "chr1\t10\t.\tA\t.,*,<*:DEL>,T\n"
	variants, err := ReadVCF(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Equal(t, []Variant{{Chr: "chr1", Pos: 10, Ref: "A", Alt: "T"}}, variants)
}

func TestReadVCFSortsByChrThenPos(t *testing.T) {
	in := "chr2\t5\t.\tA\tG\nchr1\t20\t.\tC\tT\nchr1\t10\t.\tG\tA\n"
	variants, err := ReadVCF(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Equal(t, []Variant{
		{Chr: "chr1", Pos: 10, Ref: "G", Alt: "A"},
		{Chr: "chr1", Pos: 20, Ref: "C", Alt: "T"},
		{Chr: "chr2", Pos: 5, Ref: "A", Alt: "G"},
	}, variants)
}

func TestReadVCFRejectsTooFewFields(t *testing.T) {
	_, err := ReadVCF(strings.NewReader("chr1\t10\t.\tA\n"))
	assert.Error(t, err)
}

func TestReadVCFRejectsBadPosition(t *testing.T) {
	_, err := ReadVCF(strings.NewReader("chr1\tNaN\t.\tA\tG\n"))
	assert.Error(t, err)
}
