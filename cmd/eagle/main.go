// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
eagle scores the candidate alleles in a VCF against the reads overlapping
them in a BAM, reporting how well each allele's presence explains the
observed reads relative to the reference.
*/

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/eagle/engine"
	"github.com/grailbio/eagle/eval"
	"github.com/grailbio/eagle/variant"
)

var (
	vcfPath   = flag.String("v", "", "Input VCF path (required)")
	bamPath   = flag.String("a", "", "Input BAM path, with a .bai index alongside it (required)")
	fastaPath = flag.String("r", "", "Reference FASTA path, with a .fai index alongside it (required)")
	outPath   = flag.String("o", "", "Output TSV path; default stdout")
	threads   = flag.Int("t", 0, "Number of worker goroutines; 0 = runtime.NumCPU()")
	groupMode = flag.Int("s", 0, "Variant grouping mode: 0=distance, 1=share_first, 2=share_any")
	distLim   = flag.Int("n", 10, "Max distance between adjacent variants before starting a new set (group mode 0 only)")
	maxDist   = flag.Int("w", 0, "Max distance from a set's first variant; 0 disables the cap (group mode 0 only)")
	maxH      = flag.Int("m", 1024, "Max number of hypothesis combinations scored per set")

	mvh       = flag.Bool("mvh", false, "Output only the maximum-likelihood combination per set, instead of marginal probabilities")
	pao       = flag.Bool("pao", false, "Consider only primary alignments")
	isc       = flag.Bool("isc", false, "Ignore soft-clipped bases")
	nodup     = flag.Bool("nodup", false, "Skip reads flagged as PCR/optical duplicates")
	splice    = flag.Bool("splice", false, "Treat 'N' CIGAR ops as splice junctions")
	bisulfite = flag.Bool("bs", false, "Score with bisulfite-converted (C->T / G->A) matching")
	dpFlag    = flag.Bool("dp", false, "Use affine-gap dynamic programming instead of the indel-aware fast path")
	verbose   = flag.Bool("verbose", false, "Suppress progress logging (no per-read diagnostics are printed)")
	lowMem    = flag.Bool("lowmem", false, "Skip indel detection: every combination is scored by the substitution-only fast path, without building an alternative sequence")
	phred64   = flag.Bool("phred64", false, "Input quality values are Phred+64 encoded")
	rc        = flag.Bool("rc", false, "Read-classification preset: sets omega=1e-40, isc, mvh, verbose, lowmem")

	gapOpen   = flag.Float64("gap_op", -5, "Gap open penalty (log-space, DP mode only)")
	gapExtend = flag.Float64("gap_ex", -1, "Gap extend penalty (log-space, DP mode only)")
	hetBias   = flag.Float64("hetbias", 0.5, "Prior weight split between homozygous-alt and heterozygous calls")
	omega     = flag.Float64("omega", 1e-6, "Prior weight given to the paralog 'elsewhere' source")

	debug = flag.Int("d", 0, "Diagnostic verbosity level (0, 1, or 2); recorded in the run options, no diagnostics are printed for it")
)

func eagleUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -v vcf -a bam -r fasta [OPTIONS]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = eagleUsage
	flag.Parse()
	shutdown := grail.Init()
	defer shutdown()

	if *vcfPath == "" || *bamPath == "" || *fastaPath == "" {
		log.Fatalf("-v, -a, and -r are all required")
	}
	if *groupMode < 0 || *groupMode > 2 {
		log.Fatalf("-s must be 0 (distance), 1 (share_first), or 2 (share_any), got %d", *groupMode)
	}

	// --rc: read-classification preset, per eagle.c's straight-line assignment.
	if *rc {
		*omega = 1e-40
		*isc = true
		*mvh = true
		*verbose = true
		*lowMem = true
	}

	nThreads := *threads
	if nThreads <= 0 {
		nThreads = runtime.NumCPU()
	}

	opts := engine.Opts{
		VCFPath:   *vcfPath,
		BamPath:   *bamPath,
		FastaPath: *fastaPath,
		OutPath:   *outPath,
		Threads:   nThreads,
		Group: variant.Config{
			Mode:    variant.Mode(*groupMode),
			DistLim: *distLim,
			MaxDist: *maxDist,
		},
		Eval: eval.Config{
			Omega:     *omega,
			HetBias:   *hetBias,
			GapOpen:   *gapOpen,
			GapExtend: *gapExtend,
			Bisulfite: *bisulfite,
			DP:        *dpFlag,
			LowMem:    *lowMem,
			Verbose:   *verbose,
			MVH:       *mvh,
			MaxH:      *maxH,
		},
		NoDup:   *nodup,
		PAO:     *pao,
		ISC:     *isc,
		Splice:  *splice,
		Phred64: *phred64,
		Verbose: *verbose,
		Debug:   *debug,
	}

	if err := engine.Run(opts); err != nil {
		log.Fatalf("eagle: %v", err)
	}
}
