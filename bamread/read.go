// Package bamread decodes BAM alignment records into the flattened Read
// representation the likelihood engine consumes, and provides per-goroutine
// region-fetch access to a BAM/BAI pair.
package bamread

import (
	"math"
	"strings"

	"github.com/biogo/hts/sam"
)

// Read is a decoded alignment record, scoped to a single hypothesis-set
// evaluation.
type Read struct {
	Name   string
	Chr    string
	Pos    int // 0-based, soft-clip adjusted per Opts.IgnoreSoftClip
	End    int // 0-based exclusive
	Length int // length after soft-clip policy
	Seq    string
	Qual   []byte // Phred 0..49, phred64-adjusted if requested

	CigarOpLen []int
	CigarOpChr []byte

	SplicePos    []int // positions of 'N' ops, only populated under Splice
	SpliceOffset []int

	InferredLength int

	Unmapped  bool
	Dup       bool
	Reverse   bool
	Secondary bool
	Read2     bool

	MultimapXA string // raw XA aux tag, empty if absent
	MultimapNH int     // NH aux tag, defaults to 1

	// Scratch fields tracking the combination that gives this read its
	// highest PRGV across a hypothesis set's evaluation; PRGV starts at
	// -Inf so the first combination scored always claims a read. They are
	// not printed in any mode.
	PRGU  float64
	PRGV  float64
	Pout  float64
	Index int
}

// Opts controls read decoding, mirroring eagle's -s/--isc/--splice/--phred64
// flags.
type Opts struct {
	IgnoreSoftClip bool
	Splice         bool
	Phred64        bool
}

// decode converts a biogo/hts sam.Record, already known to overlap the
// fetch window, into a Read. Unmapped reads are not converted; callers
// should skip them before calling decode (Fetch does this).
func decode(rec *sam.Record, opts Opts) *Read {
	r := &Read{
		Name:      rec.Name,
		Chr:       rec.Ref.Name(),
		Pos:       rec.Pos,
		Unmapped:  rec.Flags&sam.Unmapped != 0,
		Dup:       rec.Flags&sam.Duplicate != 0,
		Reverse:   rec.Flags&sam.Reverse != 0,
		Secondary: rec.Flags&(sam.Secondary|sam.Supplementary) != 0,
		Read2:     rec.Flags&sam.Read2 != 0,
		PRGU:      math.Inf(-1),
		PRGV:      math.Inf(-1),
		Pout:      math.Inf(-1),
	}

	nCigar := len(rec.Cigar)
	r.CigarOpLen = make([]int, nCigar)
	r.CigarOpChr = make([]byte, nCigar)
	r.SplicePos = make([]int, nCigar)
	r.SpliceOffset = make([]int, nCigar)

	startAlign := false
	sOffset, eOffset := 0, 0
	splicePos := 0
	nSplice := 0
	end := rec.Pos
	for i, op := range rec.Cigar {
		oplen := op.Len()
		opchr := cigarOpChar(op.Type())
		r.CigarOpLen[i] = oplen
		r.CigarOpChr[i] = opchr

		switch {
		case opchr == 'M' || opchr == '=' || opchr == 'X':
			startAlign = true
		case !startAlign && opchr == 'S':
			sOffset = oplen
		case startAlign && opchr == 'S':
			eOffset = oplen
		}

		if opts.Splice && opchr == 'N' {
			pos := splicePos
			if opts.IgnoreSoftClip {
				pos -= sOffset
			}
			r.SplicePos[nSplice] = pos
			r.SpliceOffset[nSplice] = oplen
			nSplice++
		} else if opts.Splice && opchr != 'D' {
			splicePos += oplen
		}

		if opchr != 'I' {
			end += oplen
		}
	}
	r.SplicePos = r.SplicePos[:nSplice]
	r.SpliceOffset = r.SpliceOffset[:nSplice]
	r.End = end - sOffset
	r.InferredLength = cigarQLen(rec.Cigar)

	if !opts.IgnoreSoftClip {
		r.Pos -= sOffset
		sOffset, eOffset = 0, 0
	} else {
		r.End -= eOffset
	}

	seq := rec.Seq.Expand()
	length := len(seq) - (sOffset + eOffset)
	if length < 0 {
		length = 0
	}
	r.Length = length

	seqBytes := make([]byte, length)
	qualBytes := make([]byte, length)
	for i := 0; i < length; i++ {
		seqBytes[i] = toUpper(seq[i+sOffset])
		q := rec.Qual[i+sOffset]
		if opts.Phred64 {
			q -= 31
		}
		qualBytes[i] = q
	}
	r.Seq = string(seqBytes)
	r.Qual = qualBytes

	r.MultimapNH = 1
	if aux := rec.AuxFields.Get(xaTag); aux != nil {
		if v, ok := aux.Value().(string); ok {
			r.MultimapXA = strings.TrimRight(v, ";")
		}
	}
	if aux := rec.AuxFields.Get(nhTag); aux != nil {
		switch v := aux.Value().(type) {
		case int8:
			r.MultimapNH = int(v)
		case uint8:
			r.MultimapNH = int(v)
		case int16:
			r.MultimapNH = int(v)
		case uint16:
			r.MultimapNH = int(v)
		case int32:
			r.MultimapNH = int(v)
		case uint32:
			r.MultimapNH = int(v)
		}
	}
	return r
}

var (
	xaTag = sam.Tag{'X', 'A'}
	nhTag = sam.Tag{'N', 'H'}
)

func cigarOpChar(t sam.CigarOpType) byte {
	switch t {
	case sam.CigarMatch:
		return 'M'
	case sam.CigarInsertion:
		return 'I'
	case sam.CigarDeletion:
		return 'D'
	case sam.CigarSkipped:
		return 'N'
	case sam.CigarSoftClipped:
		return 'S'
	case sam.CigarHardClipped:
		return 'H'
	case sam.CigarPadded:
		return 'P'
	case sam.CigarEqual:
		return '='
	case sam.CigarMismatch:
		return 'X'
	default:
		return '?'
	}
}

func cigarQLen(co sam.Cigar) int {
	n := 0
	for _, op := range co {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarInsertion, sam.CigarSoftClipped, sam.CigarEqual, sam.CigarMismatch:
			n += op.Len()
		}
	}
	return n
}

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
