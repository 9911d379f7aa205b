// Package refcache provides a concurrency-safe, lazily-populated cache of
// uppercase contig sequences backed by an indexed FASTA file.
package refcache

import (
	"os"
	"strings"
	"sync"

	"github.com/grailbio/base/errors"
)

// Entry is a cached contig: its name, uppercase sequence, and length.
// Entries live for the process once fetched.
type Entry struct {
	Name   string
	Seq    string
	Length int
}

// Cache maps contig name to Entry, populated on first Fetch from an indexed
// FASTA file and never evicted.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry
	index   *faIndex
	path    string
}

// Open builds a Cache over the FASTA file at path, generating path+".fai"
// and writing it to disk if it is not already present.
func Open(path string) (*Cache, error) {
	idx, err := loadOrBuildIndex(path)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: make(map[string]*Entry), index: idx, path: path}, nil
}

// Fetch returns the cached Entry for name, reading and uppercasing it from
// the FASTA file on first access. It returns a MissingReference-kind error
// if name is not present in the FASTA index.
func (c *Cache) Fetch(name string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[name]; ok {
		return e, nil
	}

	ent, ok := c.index.seqs[name]
	if !ok {
		return nil, errors.E(errors.NotExist, "reference sequence not found", name)
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, errors.E(errors.NotExist, err, "failed to open fasta file", c.path)
	}
	defer f.Close()

	seq, err := readIndexed(f, ent)
	if err != nil {
		return nil, errors.E(err, "failed to read reference sequence", name)
	}
	seq = strings.ToUpper(seq)

	e := &Entry{Name: name, Seq: seq, Length: len(seq)}
	c.entries[name] = e
	return e, nil
}
