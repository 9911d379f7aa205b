package bamread

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
)

func mkRecord(t *testing.T, name string, pos int, cigar []sam.CigarOp, seq string, qual []byte, flags sam.Flags) *sam.Record {
	t.Helper()
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	assert.NoError(t, err)
	return &sam.Record{
		Name:  name,
		Ref:   ref,
		Pos:   pos,
		Cigar: cigar,
		Seq:   sam.NewSeq([]byte(seq)),
		Qual:  qual,
		Flags: flags,
	}
}

func TestDecodeSimpleMatch(t *testing.T) {
	rec := mkRecord(t, "r1", 10,
		[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)},
		"acgt", []byte{30, 30, 30, 30}, 0)

	r := decode(rec, Opts{})
	assert.Equal(t, "ACGT", r.Seq)
	assert.Equal(t, 10, r.Pos)
	assert.Equal(t, 14, r.End)
	assert.Equal(t, 4, r.Length)
	assert.False(t, r.Unmapped)
	assert.False(t, r.Reverse)
}

func TestDecodeSoftClipIncluded(t *testing.T) {
	cigar := []sam.CigarOp{
		sam.NewCigarOp(sam.CigarSoftClipped, 2),
		sam.NewCigarOp(sam.CigarMatch, 4),
		sam.NewCigarOp(sam.CigarSoftClipped, 1),
	}
	rec := mkRecord(t, "r2", 100, cigar, "NNACGTN", []byte{2, 2, 30, 30, 30, 30, 2}, 0)

	r := decode(rec, Opts{IgnoreSoftClip: false})
	assert.Equal(t, "NNACGTN", r.Seq, "default policy keeps soft-clipped bases in the reported sequence")
	assert.Equal(t, 98, r.Pos, "leading soft clip shifts the reported position left")
	assert.Equal(t, 105, r.End)
}

func TestDecodeSoftClipIgnored(t *testing.T) {
	cigar := []sam.CigarOp{
		sam.NewCigarOp(sam.CigarSoftClipped, 2),
		sam.NewCigarOp(sam.CigarMatch, 4),
		sam.NewCigarOp(sam.CigarSoftClipped, 1),
	}
	rec := mkRecord(t, "r3", 100, cigar, "NNACGTN", []byte{2, 2, 30, 30, 30, 30, 2}, 0)

	r := decode(rec, Opts{IgnoreSoftClip: true})
	assert.Equal(t, "ACGT", r.Seq, "--isc strips soft-clipped bases from the reported sequence")
	assert.Equal(t, 100, r.Pos)
}

func TestDecodeFlags(t *testing.T) {
	rec := mkRecord(t, "r4", 5,
		[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 3)},
		"ACG", []byte{30, 30, 30}, sam.Reverse|sam.Duplicate|sam.Read2)

	r := decode(rec, Opts{})
	assert.True(t, r.Reverse)
	assert.True(t, r.Dup)
	assert.True(t, r.Read2)
	assert.False(t, r.Secondary)
}

func TestDecodeMultimapXA(t *testing.T) {
	rec := mkRecord(t, "r5", 5,
		[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 3)},
		"ACG", []byte{30, 30, 30}, 0)
	aux, err := sam.NewAux(sam.Tag{'X', 'A'}, "chr2,+100,3M,0;")
	assert.NoError(t, err)
	rec.AuxFields = append(rec.AuxFields, aux)

	r := decode(rec, Opts{})
	assert.Equal(t, "chr2,+100,3M,0", r.MultimapXA, "trailing semicolon is stripped")
	assert.Equal(t, 1, r.MultimapNH, "NH defaults to 1 when the tag is absent")
}

func TestDecodeMultimapNH(t *testing.T) {
	rec := mkRecord(t, "r6", 5,
		[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 3)},
		"ACG", []byte{30, 30, 30}, 0)
	aux, err := sam.NewAux(sam.Tag{'N', 'H'}, 3)
	assert.NoError(t, err)
	rec.AuxFields = append(rec.AuxFields, aux)

	r := decode(rec, Opts{})
	assert.Equal(t, 3, r.MultimapNH)
	assert.Equal(t, "", r.MultimapXA)
}

func TestDecodePhred64(t *testing.T) {
	rec := mkRecord(t, "r7", 5,
		[]sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 2)},
		"AC", []byte{64 + 31, 64 + 31}, 0)

	r := decode(rec, Opts{Phred64: true})
	assert.Equal(t, []byte{64, 64}, r.Qual)
}
