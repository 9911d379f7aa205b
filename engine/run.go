package engine

import (
	"context"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/eagle/bamread"
	"github.com/grailbio/eagle/eval"
	"github.com/grailbio/eagle/refcache"
	"github.com/grailbio/eagle/variant"
)

// Run executes one eagle pass: read the VCF, group variants into hypothesis
// sets, score every set across o.Threads workers, and write the natural-
// sorted TSV to o.OutPath (stdout if empty). Grounded on eagle.c's
// main()/process()/pool() driver sequence.
func Run(o Opts) error {
	ctx := vcontext.Background()

	refs, err := refcache.Open(o.FastaPath)
	if err != nil {
		return errors.E(errors.NotExist, err, "opening reference fasta", o.FastaPath)
	}

	vcfFile, err := file.Open(ctx, o.VCFPath)
	if err != nil {
		return errors.E(errors.NotExist, err, "opening vcf", o.VCFPath)
	}
	defer vcfFile.Close(ctx) // nolint:errcheck

	variants, err := variant.ReadVCF(vcfFile.Reader(ctx))
	if err != nil {
		return errors.E(errors.Invalid, err, "reading vcf", o.VCFPath)
	}
	log.Printf("eagle: read %d variants from %s", len(variants), o.VCFPath)

	groupReads, err := bamread.NewFetcher(o.BamPath, o.readOpts(), o.NoDup, o.PAO)
	if err != nil {
		return errors.E(errors.NotExist, err, "opening bam", o.BamPath)
	}
	sets, err := variant.Group(variants, o.Group, groupReads)
	groupReads.Close() // nolint:errcheck
	if err != nil {
		return errors.E(errors.Invalid, err, "grouping variants")
	}
	log.Printf("eagle: grouped into %d hypothesis sets", len(sets))

	results, err := runPool(sets, refs, o)
	if err != nil {
		return err
	}
	log.Printf("eagle: scored %d hypothesis sets, emitting %d rows", len(sets), len(results))

	return writeOutput(ctx, o.OutPath, results)
}

func writeOutput(ctx context.Context, outPath string, results []eval.Result) error {
	if outPath == "" {
		return eval.WriteResults(os.Stdout, results)
	}
	out, err := file.Create(ctx, outPath)
	if err != nil {
		return errors.E(err, "creating output", outPath)
	}
	if err := eval.WriteResults(out.Writer(ctx), results); err != nil {
		out.Close(ctx) // nolint:errcheck
		return err
	}
	return out.Close(ctx)
}
