// Package engine wires the variant grouper, evaluator, and reference/BAM
// caches into eagle's parallel work-pool, per eagle's pool()/evaluate_wrapper
// driver loop in the original C.
package engine

import (
	"github.com/grailbio/eagle/bamread"
	"github.com/grailbio/eagle/eval"
	"github.com/grailbio/eagle/variant"
)

// Opts holds every run-level tuning knob, mirroring eagle's flag set.
type Opts struct {
	VCFPath   string
	BamPath   string
	FastaPath string
	OutPath   string

	Threads int // -t; runPool treats <=0 as 1 (cmd/eagle substitutes runtime.NumCPU() first)

	Group variant.Config // -s/-n/-w
	Eval  eval.Config     // --mvh/--bs/--dp/--lowmem/--gap_op/--gap_ex/--hetbias/--omega

	NoDup   bool // --nodup
	PAO     bool // --pao
	ISC     bool // --isc: ignore soft clips
	Splice  bool // --splice
	Phred64 bool // --phred64
	Verbose bool // --verbose
	Debug   int  // -d: 0 (off), 1, or 2
}

// readOpts derives the bamread decode Opts implied by o.
func (o Opts) readOpts() bamread.Opts {
	return bamread.Opts{
		IgnoreSoftClip: o.ISC,
		Splice:         o.Splice,
		Phred64:        o.Phred64,
	}
}
