package eval

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/eagle/variant"
)

// Header is the column header written once at the top of the output file,
// per eagle's fixed TSV schema.
const Header = "# SEQ\tPOS\tREF\tALT\tReads\tRefReads\tAltReads\tProb\tOdds\tSet"

// WriteResults writes results as the header row followed by one TSV row per
// result, sorted by natural chromosome/position order (eagle's
// nat_sort_variant/variant_print).
func WriteResults(w io.Writer, results []Result) error {
	sortResults(results)

	tw := tsv.NewWriter(w)
	tw.WriteString(Header)
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, r := range results {
		tw.WriteString(r.Variant.Chr)
		tw.WriteInt64(int64(r.Variant.Pos))
		tw.WriteString(r.Variant.Ref)
		tw.WriteString(r.Variant.Alt)
		tw.WriteInt64(int64(r.Seen))
		tw.WriteInt64(int64(r.RefCount))
		tw.WriteInt64(int64(r.AltCount))
		tw.WriteString(strconv.FormatFloat(r.Prob, 'e', -1, 64))
		tw.WriteString(strconv.FormatFloat(r.Odds, 'f', -1, 64))
		tw.WriteString(formatSet(r.Set))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// formatSet renders a hypothesis set's variants as eagle's trailing
// bracketed list: "[chr,pos,ref,alt;chr,pos,ref,alt;...]".
func formatSet(set variant.Set) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, v := range set {
		fmt.Fprintf(&b, "%s,%d,%s,%s;", v.Chr, v.Pos, v.Ref, v.Alt)
	}
	b.WriteByte(']')
	return b.String()
}
