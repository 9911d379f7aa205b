package likelihood

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/eagle/variant"
)

// ConstructAltSeq builds the alternative sequence implied by applying combo
// (an ordered list of variant indices) to refseq, per eagle's
// construct_altseq: strip the variants' shared ref/alt prefix, splice the
// remainder in at the running offset, and track the cumulative length
// delta so later variants in the combination land at the right position.
func ConstructAltSeq(refseq string, combo []int, variants variant.Set) (string, error) {
	alt := []byte(refseq)
	offset := 0
	for _, idx := range combo {
		v := variants[idx]
		pos := v.Pos - 1 + offset
		if pos < 0 || pos > len(alt) {
			return "", errors.E(errors.Invalid, "variant out of bounds in reference", v.String())
		}

		varRef, varAlt := v.Ref, v.Alt
		switch {
		case varRef == "-":
			varRef = ""
		case varAlt == "-":
			varAlt = ""
		default:
			i := 0
			for i < len(varRef) && i < len(varAlt) && varRef[i] == varAlt[i] {
				i++
			}
			varRef = varRef[i:]
			varAlt = varAlt[i:]
			pos += i
		}

		if pos+len(varRef) > len(alt) {
			return "", errors.E(errors.Invalid, "variant out of bounds in reference", v.String())
		}

		delta := len(varAlt) - len(varRef)
		offset += delta
		if delta == 0 {
			copy(alt[pos:pos+len(varAlt)], varAlt)
			continue
		}
		next := make([]byte, 0, len(alt)+delta)
		next = append(next, alt[:pos]...)
		next = append(next, varAlt...)
		next = append(next, alt[pos+len(varRef):]...)
		alt = next
	}
	return string(alt), nil
}
