package volist

import (
	"math"

	"github.com/google/btree"
)

// LastRunEnd is the virtual end index of the final run. Run ends are never
// stored; the last run in any tree extends to the top of the index space.
const LastRunEnd = math.MaxUint32

// btreeDegree controls node fan-out for the backing B-trees. Run counts are
// small (one per size transition), so a modest degree keeps nodes compact.
const btreeDegree = 8

// entry is one key/value pair in a treeMap.
type entry struct {
	key   uint32
	value uint32
}

func entryLess(a, b entry) bool { return a.key < b.key }

// Run is a view over one maximal contiguous key span [Start, End] whose
// entries all resolve to Value. End is derived from the next stored key,
// or LastRunEnd for the final run.
type Run struct {
	Start uint32
	End   uint32
	Value uint32
}

// treeMap is an ordered uint32 -> uint32 map with floor lookup and ordered
// suffix iteration, backed by a generic B-tree.
type treeMap struct {
	bt *btree.BTreeG[entry]
}

func newTreeMap() *treeMap {
	return &treeMap{bt: btree.NewG(btreeDegree, entryLess)}
}

func (m *treeMap) len() int { return m.bt.Len() }

func (m *treeMap) empty() bool { return m.bt.Len() == 0 }

func (m *treeMap) get(key uint32) (uint32, bool) {
	e, ok := m.bt.Get(entry{key: key})
	return e.value, ok
}

func (m *treeMap) put(key, value uint32) {
	m.bt.ReplaceOrInsert(entry{key: key, value: value})
}

func (m *treeMap) delete(key uint32) (uint32, bool) {
	e, ok := m.bt.Delete(entry{key: key})
	return e.value, ok
}

func (m *treeMap) clear() {
	m.bt.Clear(false)
}

// floor returns the entry with the greatest key <= key.
func (m *treeMap) floor(key uint32) (entry, bool) {
	var found entry
	ok := false
	m.bt.DescendLessOrEqual(entry{key: key}, func(e entry) bool {
		found = e
		ok = true
		return false
	})
	return found, ok
}

// ceiling returns the entry with the smallest key >= key.
func (m *treeMap) ceiling(key uint32) (entry, bool) {
	var found entry
	ok := false
	m.bt.AscendGreaterOrEqual(entry{key: key}, func(e entry) bool {
		found = e
		ok = true
		return false
	})
	return found, ok
}

// ascendFrom visits every entry with key >= key in increasing key order.
// Iteration stops when fn returns false.
func (m *treeMap) ascendFrom(key uint32, fn func(entry) bool) {
	m.bt.AscendGreaterOrEqual(entry{key: key}, fn)
}

func (m *treeMap) ascend(fn func(entry) bool) {
	m.bt.Ascend(fn)
}

// keys returns all stored keys in increasing order.
func (m *treeMap) keys() []uint32 {
	out := make([]uint32, 0, m.bt.Len())
	m.bt.Ascend(func(e entry) bool {
		out = append(out, e.key)
		return true
	})
	return out
}

// values returns all stored values in key order.
func (m *treeMap) values() []uint32 {
	out := make([]uint32, 0, m.bt.Len())
	m.bt.Ascend(func(e entry) bool {
		out = append(out, e.value)
		return true
	})
	return out
}

// runsWithin returns every run overlapping [start, end], in order. The first
// run is anchored at the floor of start, so it may begin before start; the
// last run always reports End == LastRunEnd. Fails with ErrNoRun when the
// map has no key at or below start.
func (m *treeMap) runsWithin(start, end uint32) ([]Run, error) {
	anchor, ok := m.floor(start)
	if !ok {
		return nil, ErrNoRun
	}

	var runs []Run
	prev := anchor
	first := true
	m.bt.AscendGreaterOrEqual(entry{key: anchor.key}, func(e entry) bool {
		if e.key > end {
			return false
		}
		if first {
			prev, first = e, false
			return true
		}
		runs = append(runs, Run{Start: prev.key, End: e.key - 1, Value: prev.value})
		prev = e
		return true
	})

	runs = append(runs, Run{Start: prev.key, End: LastRunEnd, Value: prev.value})
	return runs, nil
}
