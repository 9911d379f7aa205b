package variant

// Mode selects how consecutive variants are packed into a hypothesis Set.
type Mode int

const (
	// ModeDistance starts a new set when the chromosome changes, the gap to
	// the previous variant exceeds DistLim, or (if MaxDist > 0) the gap to
	// the set's first variant exceeds MaxDist.
	ModeDistance Mode = iota
	// ModeShareFirst packs in every variant whose position is at or before
	// the end of the last read overlapping the set's first variant.
	ModeShareFirst
	// ModeShareAny extends the set while the end of the last read
	// overlapping the current tail reaches the next variant.
	ModeShareAny
)

// Config controls Group's behavior; it mirrors eagle's -s/-n/-w flags.
type Config struct {
	Mode    Mode
	DistLim int // ModeDistance only; <=0 disables grouping: every variant gets its own set
	MaxDist int // ModeDistance only; <=0 disables the window cap
}

// LastReadLocator answers "what is the rightmost pos+length among reads
// overlapping the single-base region (chr, pos)?", returning -1 if no read
// overlaps. It is satisfied by *bamread.Fetcher.
type LastReadLocator interface {
	FetchLast(chr string, pos1, pos2 int) (int, error)
}

// Group partitions a (chr,pos)-sorted variant list into hypothesis sets, then
// applies the heterozygous-non-reference split pass.
func Group(variants []Variant, cfg Config, finder LastReadLocator) ([]Set, error) {
	raw, err := groupInitial(variants, cfg, finder)
	if err != nil {
		return nil, err
	}
	return splitHeterozygous(raw), nil
}

func groupInitial(variants []Variant, cfg Config, finder LastReadLocator) ([]Set, error) {
	var sets []Set
	n := len(variants)
	i := 0
	switch cfg.Mode {
	case ModeShareFirst:
		for i < n {
			curr := Set{variants[i]}
			last, err := finder.FetchLast(variants[i].Chr, variants[i].Pos, variants[i].Pos)
			if err != nil {
				return nil, err
			}
			j := i + 1
			for j < n && variants[j].Chr == variants[i].Chr {
				if variants[j].Pos > last {
					break
				}
				curr = append(curr, variants[j])
				j++
			}
			i = j
			sets = append(sets, curr)
		}
	case ModeShareAny:
		for i < n {
			curr := Set{variants[i]}
			tailChr := variants[i].Chr
			tailPos := variants[i].Pos
			j := i + 1
			for j < n && variants[j].Chr == tailChr {
				last, err := finder.FetchLast(tailChr, tailPos, tailPos)
				if err != nil {
					return nil, err
				}
				if variants[j].Pos > last {
					break
				}
				curr = append(curr, variants[j])
				tailPos = variants[j].Pos
				j++
			}
			i = j
			sets = append(sets, curr)
		}
	default: // ModeDistance
		for i < n {
			curr := Set{variants[i]}
			j := i + 1
			for cfg.DistLim > 0 && j < n && variants[j].Chr == variants[j-1].Chr && absInt(variants[j].Pos-variants[j-1].Pos) <= cfg.DistLim {
				if cfg.MaxDist > 0 && absInt(variants[j].Pos-variants[i].Pos) > cfg.MaxDist {
					break
				}
				curr = append(curr, variants[j])
				j++
			}
			i = j
			sets = append(sets, curr)
		}
	}
	return sets, nil
}

// splitHeterozygous applies eagle's fixed-point pass: dedup identical
// variants within a set, split same-position multi-variant sets into
// singletons, and otherwise duplicate a set once per adjacent same-position
// pair so that both allele assignments get tested.
func splitHeterozygous(sets []Set) []Set {
	changed := true
	for changed {
		changed = false
		for i := 0; i < len(sets); i++ {
			curr := sets[i]
			if len(curr) == 1 {
				continue
			}

			allSamePos := true
			dedup := curr[:0:0]
			dedup = append(dedup, curr[0])
			for j := 1; j < len(curr); j++ {
				prev := curr[j-1]
				next := curr[j]
				if isDuplicate(prev, next) {
					continue // drop duplicate entry
				}
				dedup = append(dedup, next)
				if prev.Pos != next.Pos {
					allSamePos = false
				}
			}
			curr = dedup
			sets[i] = curr
			if len(curr) == 1 {
				continue
			}

			if allSamePos {
				for len(curr) > 1 {
					last := curr[len(curr)-1]
					curr = curr[:len(curr)-1]
					sets[i] = curr
					sets = append(sets, Set{last})
				}
				continue
			}

			for j := 0; j < len(curr)-1; j++ {
				if curr[j].Pos == curr[j+1].Pos {
					changed = true
					dup := make(Set, len(curr))
					copy(dup, curr)
					curr = append(curr[:j], curr[j+1:]...)
					dup = append(dup[:j+1], dup[j+2:]...)
					sets[i] = curr
					sets = append(sets, dup)
					break
				}
			}
		}
	}
	return sets
}

func isDuplicate(a, b Variant) bool {
	return a.Pos == b.Pos && a.Chr == b.Chr && a.Ref == b.Ref && a.Alt == b.Alt
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
