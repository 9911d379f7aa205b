package eval

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/eagle/bamread"
	"github.com/grailbio/eagle/likelihood"
	"github.com/grailbio/eagle/refcache"
	"github.com/stretchr/testify/assert"
)

func TestElsewhereDiscountsLongerReads(t *testing.T) {
	tables := likelihood.NewBasicTable()
	isMatch := make([]float64, 20)
	delta := make([]float64, 20)
	for i := range isMatch {
		isMatch[i] = tables.Match[30]
		delta[i] = tables.Mismatch[30] - tables.Match[30]
	}

	short := &bamread.Read{Length: 20, InferredLength: 20}
	long := &bamread.Read{Length: 20, InferredLength: 10} // longer than its inferred alignment length

	assert.Greater(t, elsewhere(isMatch, delta, short), elsewhere(isMatch, delta, long),
		"a read that is longer than its inferred alignment should be penalized relative to one that isn't")
}

func TestApplyMultimapNHScalesParalogAndOutMass(t *testing.T) {
	tables := likelihood.NewBasicTable()
	matrix := likelihood.BuildMatrix("AAAA", []byte{30, 30, 30, 30}, tables, likelihood.BuildOpts{})

	read := &bamread.Read{Length: 4, MultimapNH: 4}
	prguBase, prgvBase, poutBase := -2.0, -2.0, -10.0

	prgu, prgv, pout := applyMultimap(read, matrix, -5.0, prguBase, prgvBase, poutBase, nil, tables)
	assert.Greater(t, pout, poutBase, "NH>1 should add more paralog mass to pout")
	assert.Greater(t, prgu, prguBase, "NH>1 should fold multimap evidence back into prgu")
	assert.Greater(t, prgv, prgvBase, "NH>1 should fold multimap evidence back into prgv")
}

func TestApplyMultimapNoMultimapIsNoop(t *testing.T) {
	tables := likelihood.NewBasicTable()
	matrix := likelihood.BuildMatrix("AAAA", []byte{30, 30, 30, 30}, tables, likelihood.BuildOpts{})
	read := &bamread.Read{Length: 4} // MultimapNH defaults to 0, MultimapXA empty

	prgu, prgv, pout := applyMultimap(read, matrix, -5.0, -2.0, -2.0, -10.0, nil, tables)
	assert.Equal(t, -2.0, prgu)
	assert.Equal(t, -2.0, prgv)
	assert.Equal(t, -10.0, pout)
}

func TestApplyMultimapXAOppositeLocusAddsParalogMass(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xa_test_ref.fa")
	assert.NoError(t, os.WriteFile(path, []byte(">chr2\nAAAAAAAAAA\n"), 0644))
	refs, err := refcache.Open(path)
	assert.NoError(t, err)

	tables := likelihood.NewBasicTable()
	matrix := likelihood.BuildMatrix("AAAA", []byte{30, 30, 30, 30}, tables, likelihood.BuildOpts{})

	read := &bamread.Read{
		Chr:        "chr1",
		Pos:        100,
		Length:     4,
		Qual:       []byte{30, 30, 30, 30},
		MultimapXA: "chr2,3,4M,0;",
	}

	prgu, prgv, pout := applyMultimap(read, matrix, -1.0, math.Inf(-1), math.Inf(-1), math.Inf(-1), refs, tables)
	assert.Greater(t, pout, math.Inf(-1))
	assert.Greater(t, prgu, math.Inf(-1), "the secondary locus' alignment probability should be folded into prgu")
	assert.Greater(t, prgv, math.Inf(-1))
}

func TestApplyMultimapXAReverseStrandSameLocusSkipsPrimary(t *testing.T) {
	// A reverse-strand XA entry at the primary's own locus is encoded with a
	// negative position; the overlap check must compare against the
	// unsigned genomic position, not the signed XA encoding, or it will
	// never recognize the overlap and double-count the primary alignment.
	tables := likelihood.NewBasicTable()
	matrix := likelihood.BuildMatrix("AAAA", []byte{30, 30, 30, 30}, tables, likelihood.BuildOpts{})

	read := &bamread.Read{
		Chr:        "chr1",
		Pos:        100,
		Length:     4,
		Qual:       []byte{30, 30, 30, 30},
		MultimapXA: "chr1,-101,4M,0;",
	}

	prguBase, prgvBase := -2.0, -2.0
	prgu, prgv, pout := applyMultimap(read, matrix, -1.0, prguBase, prgvBase, math.Inf(-1), nil, tables)
	assert.Equal(t, prguBase, prgu, "overlapping secondary locus should not contribute alignment mass to prgu")
	assert.Equal(t, prgvBase, prgv, "overlapping secondary locus should not contribute alignment mass to prgv")
	assert.Greater(t, pout, math.Inf(-1), "the elsewhere contribution is still added regardless of overlap")
}
