// Package container implements the two intrusive data structures the
// package universe is built from: an open-addressed string-keyed hash
// table and a singly linked list, both grounded on original_source's
// templates.h HASH/LIST macros (dpkg.c instantiates HASH_IMPL for
// packagetbl, virtualpkgtbl, sourcetbl and sourcenotetbl with strhash and
// strcmp). Go's map type already gives us these properties, but the spec
// names the hash table as one of the hard-core components the solver's
// hot path depends on, so it is built here rather than folded into a
// plain map. StringTable tracks its occupancy and a collision count
// internally; neither is exported.
package container

// strhash mirrors templates.h's strhash: a polynomial rolling hash over
// the bytes of a string, folded into the table's current size. The
// original folds by a power-of-two modulus taken as a parameter; this
// version always hashes against the current table size since Go tables
// grow dynamically rather than being sized at construction.
func strhash(s string, size int) int {
	h := 0
	for i := 0; i < len(s); i++ {
		h = (h*39 + int(s[i])) % size
	}
	return h
}

type slot[V any] struct {
	key    string
	value  V
	used   bool
	tomb   bool
}

// StringTable is an open-addressed hash table keyed by string, using
// linear probing exactly as HASH_IMPL's lookup/add/replace/remove macros
// do (walk forward from the hashed slot until the key is found or an
// empty slot is hit).
type StringTable[V any] struct {
	slots      []slot[V]
	nUsed      int
	tombstones int
	collisions int
}

// NewStringTable returns an empty table sized for roughly capacityHint
// entries at a comfortable load factor.
func NewStringTable[V any](capacityHint int) *StringTable[V] {
	size := 16
	for size < capacityHint*2 {
		size *= 2
	}
	return &StringTable[V]{slots: make([]slot[V], size)}
}

func (t *StringTable[V]) probe(key string) int {
	size := len(t.slots)
	i := strhash(key, size)
	for {
		s := &t.slots[i]
		if !s.used && !s.tomb {
			return i
		}
		if s.used && s.key == key {
			return i
		}
		i = (i + 1) % size
	}
}

// probeForInsert walks the same linear chain as probe, but is aware of
// tombstones left by Remove: it returns matchIdx >= 0 if key is already
// present, otherwise insertIdx names the slot a new entry should land
// in, which is the first tombstone seen along the chain if there was
// one, falling back to the terminating truly-empty slot otherwise. This
// is what lets Add reclaim tombstones instead of only ever consuming
// fresh slots, which is what let a remove-heavy-then-add workload run
// the table out of empty slots while nUsed stayed low.
func (t *StringTable[V]) probeForInsert(key string) (matchIdx, insertIdx int) {
	size := len(t.slots)
	i := strhash(key, size)
	insertIdx = -1
	for {
		s := &t.slots[i]
		if s.used && s.key == key {
			return i, -1
		}
		if s.tomb {
			if insertIdx < 0 {
				insertIdx = i
			}
		} else if !s.used {
			if insertIdx < 0 {
				insertIdx = i
			}
			return -1, insertIdx
		}
		i = (i + 1) % size
	}
}

// Lookup returns the value stored under key, and whether it was present.
func (t *StringTable[V]) Lookup(key string) (V, bool) {
	i := t.probe(key)
	s := &t.slots[i]
	if s.used {
		return s.value, true
	}
	var zero V
	return zero, false
}

// Add inserts key→value. If key is already present, its value is
// replaced and the prior value is returned with ok=true (mirroring
// replace_TYPE); otherwise ok is false. The grow check counts live
// entries and tombstones together, since both occupy a physical slot
// and a table left with no truly-empty slot would spin forever probing
// for an absent key.
func (t *StringTable[V]) Add(key string, value V) (prev V, ok bool) {
	if t.nUsed+t.tombstones+1 > len(t.slots)*3/4 {
		t.grow()
	}
	matchIdx, insertIdx := t.probeForInsert(key)
	if matchIdx >= 0 {
		s := &t.slots[matchIdx]
		prev, ok = s.value, true
		s.value = value
		return prev, ok
	}
	s := &t.slots[insertIdx]
	if s.tomb {
		t.tombstones--
	} else {
		t.collisions += countProbe(t, key, insertIdx)
	}
	s.key, s.value, s.used, s.tomb = key, value, true, false
	t.nUsed++
	return prev, false
}

func countProbe[V any](t *StringTable[V], key string, finalIndex int) int {
	size := len(t.slots)
	start := strhash(key, size)
	if start == finalIndex {
		return 0
	}
	return 1
}

// Remove deletes key, returning its value and whether it was present.
// The freed slot becomes a tombstone so later linear probes still reach
// entries that hashed past it.
func (t *StringTable[V]) Remove(key string) (V, bool) {
	i := t.probe(key)
	s := &t.slots[i]
	if !s.used {
		var zero V
		return zero, false
	}
	v := s.value
	var zeroV V
	s.value = zeroV
	s.key = ""
	s.used = false
	s.tomb = true
	t.nUsed--
	t.tombstones++
	return v, true
}

// Len reports the number of live entries.
func (t *StringTable[V]) Len() int { return t.nUsed }

// Each calls f for every live entry, in table order (unspecified,
// matching the original's first_TYPE/next_TYPE iteration which walks
// bucket order rather than insertion order).
func (t *StringTable[V]) Each(f func(key string, value V)) {
	for i := range t.slots {
		if t.slots[i].used {
			f(t.slots[i].key, t.slots[i].value)
		}
	}
}

func (t *StringTable[V]) grow() {
	old := t.slots
	t.slots = make([]slot[V], len(old)*2)
	t.nUsed = 0
	t.tombstones = 0
	t.collisions = 0
	for _, s := range old {
		if s.used {
			t.Add(s.key, s.value)
		}
	}
}
