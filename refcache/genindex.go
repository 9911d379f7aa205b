package refcache

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// GenerateIndex writes a samtools-faidx-compatible .fai index for the FASTA
// data read from in. Adapted from eagle's commented-out fai_build fallback:
// when no index is present on disk, one is built from the FASTA itself.
func GenerateIndex(out io.Writer, in io.Reader) (err error) {
	var (
		w           = tsv.NewWriter(out)
		r           = bufio.NewReader(in)
		seqName     string
		seqStartOff int64
		totalBases  int
		lineBases   int
		lineWidth   int
		cumByte     int64
		eof         bool
	)

	setErr := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}
	flush := func() {
		if seqName == "" {
			return
		}
		w.WriteString(seqName)
		w.WriteInt64(int64(totalBases))
		w.WriteInt64(seqStartOff)
		w.WriteInt64(int64(lineBases))
		w.WriteInt64(int64(lineWidth))
		setErr(w.EndLine())
	}

	for !eof && err == nil {
		fullLine, e := r.ReadBytes('\n')
		if e == io.EOF {
			eof = true
		} else if e != nil {
			setErr(e)
		}
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			flush()
			seqName = strings.Split(string(line[1:]), " ")[0]
			seqStartOff = cumByte
			lineWidth = 0
			lineBases = 0
			totalBases = 0
			continue
		}
		if lineWidth == 0 {
			lineWidth = len(fullLine)
			lineBases = len(line)
		}
		totalBases += len(line)
	}
	flush()
	setErr(w.Flush())
	if cumByte == 0 {
		setErr(errors.E(errors.Invalid, "empty fasta file"))
	}
	return
}
