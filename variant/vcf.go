package variant

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// ReadVCF reads a tab-separated VCF-like stream, using only columns 1, 2, 4,
// and 5 (chr, pos, ref, alt). Blank lines and lines starting with '#' are
// skipped. Comma-separated multi-allelic ref/alt fields are expanded as a
// cross product; alt tokens ".", "*", and "<*:DEL>" are dropped. The returned
// list is sorted by (chr, pos), matching the grouper's input precondition.
func ReadVCF(r io.Reader) ([]Variant, error) {
	var variants []Variant
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, errors.E(errors.Invalid, "bad fields in VCF file at line", strconv.Itoa(lineNo))
		}
		// Columns are CHROM,POS,ID,REF,ALT; ID (field 2) is unused.
		chr, posField, ref, alt := fields[0], fields[1], fields[3], fields[4]
		pos, err := strconv.Atoi(posField)
		if err != nil {
			return nil, errors.E(errors.Invalid, err, "bad position in VCF file at line", strconv.Itoa(lineNo))
		}
		if hasDigits(ref) || hasDigits(alt) {
			return nil, errors.E(errors.Invalid, "bad fields in VCF file at line", strconv.Itoa(lineNo))
		}
		for _, refToken := range splitAlleles(ref) {
			for _, altToken := range splitAlleles(alt) {
				if altToken == "." || altToken == "*" || altToken == "<*:DEL>" {
					continue
				}
				variants = append(variants, Variant{Chr: chr, Pos: pos, Ref: refToken, Alt: altToken})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "failed to read VCF file")
	}
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].Chr != variants[j].Chr {
			return variants[i].Chr < variants[j].Chr
		}
		return variants[i].Pos < variants[j].Pos
	})
	return variants, nil
}

// splitAlleles splits a comma-delimited allele field, treating a bare "-" as
// its own token (the empty-allele convention used throughout spec.md).
func splitAlleles(field string) []string {
	parts := strings.Split(field, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		out = append(out, field)
	}
	return out
}

func hasDigits(s string) bool {
	for _, c := range s {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}
