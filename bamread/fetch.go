package bamread

import (
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/index"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
)

// Fetcher opens its own BAM reader and index so that each worker goroutine
// can fetch overlapping reads without contending on a shared handle.
type Fetcher struct {
	f    *os.File
	r    *bam.Reader
	h    *sam.Header
	idx  *bam.Index
	opts Opts

	nodup bool // --nodup: skip PCR/optical duplicate reads
	pao   bool // --pao: skip secondary alignments (primary alignments only)
}

// NewFetcher opens path and path+".bai" and returns a Fetcher reading with
// opts. nodup and pao mirror eagle's --nodup and --pao flags.
func NewFetcher(path string, opts Opts, nodup, pao bool) (*Fetcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(errors.NotExist, err, "failed to open bam file", path)
	}
	r, err := bam.NewReader(f, 0)
	if err != nil {
		f.Close()
		return nil, errors.E(err, "failed to open bam stream", path)
	}

	ir, err := os.Open(path + ".bai")
	if err != nil {
		r.Close()
		f.Close()
		return nil, errors.E(errors.NotExist, err, "failed to open bai file", path+".bai")
	}
	idx, err := bam.ReadIndex(ir)
	ir.Close()
	if err != nil {
		r.Close()
		f.Close()
		return nil, errors.E(err, "failed to read bai data", path+".bai")
	}

	return &Fetcher{f: f, r: r, h: r.Header(), idx: idx, opts: opts, nodup: nodup, pao: pao}, nil
}

// Close releases the reader's underlying file. It is safe to call from the
// goroutine that created the Fetcher only; Fetchers are not shared.
func (ft *Fetcher) Close() error {
	if err := ft.r.Close(); err != nil {
		ft.f.Close()
		return err
	}
	return ft.f.Close()
}

// Fetch returns every decoded Read overlapping the 1-based, inclusive
// [pos1, pos2] region on chr, honoring nodup/pao filtering and skipping
// unmapped reads.
func (ft *Fetcher) Fetch(chr string, pos1, pos2 int) ([]*Read, error) {
	ref, ok := findReference(ft.h.Refs(), chr)
	if !ok {
		return nil, errors.E(errors.NotExist, "reference not found in bam header", chr)
	}
	start := pos1 - 1
	if start < 0 {
		start = 0
	}
	end := pos2
	if end > ref.Len() {
		end = ref.Len()
	}
	chunks, err := ft.idx.Chunks(ref, start, end)
	if err == index.ErrInvalid || len(chunks) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, errors.E(err, "failed to get bam index chunks", chr)
	}
	it, err := bam.NewIterator(ft.r, chunks)
	if err != nil {
		return nil, errors.E(err, "failed to create bam iterator", chr)
	}
	defer it.Close()

	var reads []*Read
	for it.Next() {
		rec := it.Record()
		if rec.Flags&sam.Unmapped != 0 {
			continue
		}
		if ft.nodup && rec.Flags&sam.Duplicate != 0 {
			continue
		}
		if ft.pao && rec.Flags&(sam.Secondary|sam.Supplementary) != 0 {
			continue
		}
		reads = append(reads, decode(rec, ft.opts))
	}
	if err := it.Error(); err != nil {
		return nil, errors.E(err, "error iterating bam records", chr)
	}
	return reads, nil
}

// FetchLast returns the rightmost pos+length (0-based, exclusive) among
// mapped reads overlapping the single-base region (chr, pos1..pos2), or -1
// if no read overlaps. Used by variant.Group's share_first/share_any modes.
func (ft *Fetcher) FetchLast(chr string, pos1, pos2 int) (int, error) {
	reads, err := ft.Fetch(chr, pos1, pos2)
	if err != nil {
		return -1, err
	}
	last := -1
	for _, r := range reads {
		if r.End > last {
			last = r.End
		}
	}
	return last, nil
}

func findReference(refs []*sam.Reference, name string) (*sam.Reference, bool) {
	for _, r := range refs {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}
