package engine

// PawnEntry stores a cached pawn file score.
type PawnEntry struct {
	Key   uint64
	Score int32
	used  bool
}

// PawnTable is a hash table for caching pawn structure evaluations.
// It is not safe for concurrent use.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a new pawn hash table with the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	// Each entry is 16 bytes with padding, round to power of 2
	entrySize := 16
	numEntries := (sizeMB * 1024 * 1024) / entrySize

	size := 1
	for size*2 <= numEntries {
		size *= 2
	}

	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe looks up a pawn structure score by pawn key.
func (pt *PawnTable) Probe(key uint64) (int, bool) {
	entry := &pt.entries[key&pt.mask]
	if entry.used && entry.Key == key {
		return int(entry.Score), true
	}
	return 0, false
}

// Store saves a pawn structure score.
func (pt *PawnTable) Store(key uint64, score int) {
	pt.entries[key&pt.mask] = PawnEntry{Key: key, Score: int32(score), used: true}
}
