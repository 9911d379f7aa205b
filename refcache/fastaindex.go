package refcache

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/grailbio/base/errors"
)

// indexEntry is one parsed .fai record: byte offset and line geometry
// needed to random-access a sequence without reading the whole file.
type indexEntry struct {
	length    int
	offset    int64
	lineBase  int64
	lineWidth int64
}

type faIndex struct {
	seqs map[string]indexEntry
}

var indexLineRE = regexp.MustCompile(`^(\S+)\t(\d+)\t(\d+)\t(\d+)\t(\d+)$`)

func parseFaIndex(r io.Reader) (*faIndex, error) {
	idx := &faIndex{seqs: make(map[string]indexEntry)}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		m := indexLineRE.FindStringSubmatch(line)
		if m == nil {
			return nil, errors.E(errors.Invalid, "malformed fasta index line", line)
		}
		length, _ := strconv.Atoi(m[2])
		offset, _ := strconv.ParseInt(m[3], 10, 64)
		lineBase, _ := strconv.ParseInt(m[4], 10, 64)
		lineWidth, _ := strconv.ParseInt(m[5], 10, 64)
		idx.seqs[m[1]] = indexEntry{length: length, offset: offset, lineBase: lineBase, lineWidth: lineWidth}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "failed to read fasta index")
	}
	return idx, nil
}

// loadOrBuildIndex reads path+".fai", generating it from the FASTA itself
// when absent, mirroring eagle's fai_build fallback.
func loadOrBuildIndex(path string) (*faIndex, error) {
	faiPath := path + ".fai"
	f, err := os.Open(faiPath)
	if err == nil {
		defer f.Close()
		return parseFaIndex(f)
	}
	if !os.IsNotExist(err) {
		return nil, errors.E(err, "failed to open fasta index", faiPath)
	}

	fasta, err := os.Open(path)
	if err != nil {
		return nil, errors.E(errors.NotExist, err, "failed to open fasta file", path)
	}
	defer fasta.Close()

	out, err := os.Create(faiPath)
	if err != nil {
		return nil, errors.E(err, "failed to create fasta index", faiPath)
	}
	if err := GenerateIndex(out, fasta); err != nil {
		out.Close()
		return nil, errors.E(err, "failed to generate fasta index", path)
	}
	if err := out.Close(); err != nil {
		return nil, errors.E(err, "failed to flush fasta index", faiPath)
	}

	generated, err := os.Open(faiPath)
	if err != nil {
		return nil, errors.E(err, "failed to reopen generated fasta index", faiPath)
	}
	defer generated.Close()
	return parseFaIndex(generated)
}

// readIndexed reads the full sequence for ent from r, stripping line
// terminators, following the random-access byte arithmetic htslib's faidx
// format defines.
func readIndexed(r io.ReadSeeker, ent indexEntry) (string, error) {
	if _, err := r.Seek(ent.offset, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to seek to offset %d: %v", ent.offset, err)
	}
	nLines := 0
	if ent.lineBase > 0 {
		nLines = (ent.length + int(ent.lineBase) - 1) / int(ent.lineBase)
	}
	toRead := ent.length + nLines*int(ent.lineWidth-ent.lineBase)

	buf := make([]byte, toRead)
	if _, err := io.ReadFull(r, buf); err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read sequence: %v", err)
	}

	out := make([]byte, 0, ent.length)
	linePos := int64(0)
	for _, b := range buf {
		if linePos < ent.lineBase {
			out = append(out, b)
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	if len(out) > ent.length {
		out = out[:ent.length]
	}
	return string(out), nil
}
