package volist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring"
	"github.com/ZanzyTHEbar/assert-lib"
)

// Item is one resolved element: the per-item size of the run containing
// Index, and the absolute pixel offset of that item.
type Item struct {
	Index  uint32
	Size   uint32
	Offset uint32
}

// OffsetList maps a sequence of item indices to variable per-item sizes and
// derives the cumulative pixel offset of every item. It keeps three ordered
// maps in lockstep:
//
//   - sizes: run start index -> per-item size. A run is the maximal span
//     between one key and the next; its end is never stored.
//   - offsets: run start index -> cumulative pixel offset at the run start,
//     rebuilt from sizes for the affected suffix after every mutation.
//   - pixels: cumulative pixel offset -> run start index, the inverse of
//     offsets, used for offset-to-index lookups.
//
// A run of size 0 is a placeholder: a reserved, unsized spot created by
// InsertSpots. Placeholder run keys are additionally tracked in a bitmap so
// resolving them does not scan the whole size map.
//
// The structure is not synchronized; callers must serialize mutating calls.
type OffsetList struct {
	sizes   *treeMap
	offsets *treeMap
	pixels  *treeMap
	spots   *roaring.Bitmap
	asserts *assert.AssertHandler
	stats   *OffsetListStats
}

// New creates an empty offset list.
func New() *OffsetList {
	return &OffsetList{
		sizes:   newTreeMap(),
		offsets: newTreeMap(),
		pixels:  newTreeMap(),
		spots:   roaring.New(),
		asserts: assert.NewAssertHandler(),
		stats:   &OffsetListStats{},
	}
}

// Len returns the number of stored runs.
func (l *OffsetList) Len() int {
	return l.sizes.len()
}

// Insert declares that items start..end (inclusive) now have the given
// size, merging into and splitting existing runs as needed, then rebuilds
// the offset and pixel maps from start onward. Size 0 is reserved for
// placeholders and is rejected here.
func (l *OffsetList) Insert(start, end, size uint32) error {
	if size == 0 {
		return fmt.Errorf("insert [%d, %d]: %w", start, end, ErrReservedSize)
	}

	l.stats.mu.Lock()
	l.stats.Insertions++
	l.stats.mu.Unlock()

	// First insertion seeds a single run covering the whole index space.
	if l.sizes.empty() {
		l.sizes.put(0, size)
		if err := l.propagate(start); err != nil {
			return err
		}
		l.syncCounts()
		slog.Debug("offset list seeded", "size", size)
		return nil
	}

	// An insert landing exactly on a placeholder resolves reserved spots.
	if v, ok := l.sizes.get(start); ok && v == 0 {
		return l.fillSpots(start, size)
	}

	queryStart := start
	if queryStart > 0 {
		queryStart--
	}
	queryEnd := end
	if queryEnd < LastRunEnd {
		queryEnd++
	}

	overlapping, err := l.sizes.runsWithin(queryStart, queryEnd)
	if err != nil {
		return l.invariant(err, "size index has no run at or below the insert start")
	}

	shouldInsert := false
	for i, run := range overlapping {
		if i == 0 {
			// The new region absorbs into the first run when sizes match.
			shouldInsert = run.Value != size
		} else if end >= run.Start || size == run.Value {
			// Covered by the new interval, or an equal-size neighbour:
			// either way the run's start key merges away.
			if err := l.removeRun(run.Start); err != nil {
				return err
			}
		}

		// A partially covered run keeps its tail as a new run at end+1.
		if run.End > end && end >= run.Start && run.Value != size {
			l.sizes.put(end+1, run.Value)
			if run.Value == 0 {
				// A split placeholder is still a reserved spot.
				l.spots.Add(end + 1)
			}
		}
	}

	if shouldInsert {
		l.sizes.put(start, size)
	}

	if err := l.propagate(start); err != nil {
		return err
	}
	l.syncCounts()

	slog.Debug("run inserted",
		"start", start,
		"end", end,
		"size", size,
		"runs", l.sizes.len())

	return nil
}

// InsertSpots reserves a run of size followed by an unsized placeholder at
// each given index. It is a bulk initializer and requires an empty list.
func (l *OffsetList) InsertSpots(spots []uint32, size uint32) error {
	if !l.sizes.empty() {
		return fmt.Errorf("insert spots: %w", ErrNotEmpty)
	}

	for _, spot := range spots {
		if spot == LastRunEnd {
			return fmt.Errorf("insert spot %d: %w", spot, ErrSpotOverflow)
		}
	}

	for _, spot := range spots {
		l.sizes.put(spot, size)
		l.sizes.put(spot+1, 0)
		l.spots.Add(spot + 1)
	}

	l.stats.mu.Lock()
	l.stats.SpotReservations += int64(len(spots))
	l.stats.mu.Unlock()

	if err := l.propagate(0); err != nil {
		return err
	}
	l.syncCounts()

	slog.Debug("spots reserved", "spots", len(spots), "size", size)
	return nil
}

// RemoveIndex removes the run starting at index from all three maps.
func (l *OffsetList) RemoveIndex(index uint32) error {
	l.stats.mu.Lock()
	l.stats.Removals++
	l.stats.mu.Unlock()

	if err := l.removeRun(index); err != nil {
		return err
	}
	l.syncCounts()

	slog.Debug("run removed", "index", index, "runs", l.sizes.len())
	return nil
}

// Clear removes every entry from the three maps and the reserved-spot set.
func (l *OffsetList) Clear() {
	l.sizes.clear()
	l.offsets.clear()
	l.pixels.clear()
	l.spots.Clear()

	l.stats.mu.Lock()
	l.stats.Runs = 0
	l.stats.ReservedSpots = 0
	l.stats.mu.Unlock()

	slog.Info("offset list cleared")
}

// fillSpots resolves an insert that lands on a placeholder run. When every
// reserved spot already follows a run of the requested size the whole
// structure collapses back to a single uniform run at offset origin zero.
// Otherwise every placeholder across the index is rewritten to the
// requested size in place and offsets are rebuilt from start.
func (l *OffsetList) fillSpots(start, size uint32) error {
	prev, ok := l.sizes.get(start - 1)
	if !ok {
		return l.invariant(ErrOutOfSync, "placeholder run has no preceding sized run")
	}

	if prev == size && l.uniformSpotRuns(size) {
		l.sizes.clear()
		l.offsets.clear()
		l.pixels.clear()
		l.spots.Clear()

		l.sizes.put(0, size)
		l.offsets.put(0, 0)
		l.pixels.put(0, 0)
		l.syncCounts()

		slog.Debug("reserved spots collapsed into a uniform run", "size", size)
		return nil
	}

	filled := 0
	l.spots.Iterate(func(spot uint32) bool {
		l.sizes.put(spot, size)
		filled++
		return true
	})
	l.spots.Clear()

	if err := l.propagate(start); err != nil {
		return err
	}
	l.syncCounts()

	slog.Debug("reserved spots filled", "spots", filled, "size", size)
	return nil
}

// uniformSpotRuns reports whether the run preceding every reserved spot
// already carries the given size.
func (l *OffsetList) uniformSpotRuns(size uint32) bool {
	uniform := true
	l.spots.Iterate(func(spot uint32) bool {
		prev, ok := l.sizes.get(spot - 1)
		if !ok || prev != size {
			uniform = false
			return false
		}
		return true
	})
	return uniform
}

// removeRun drops the run starting at index from sizes, offsets and pixels,
// and untracks it as a reserved spot if it was one.
func (l *OffsetList) removeRun(index uint32) error {
	if v, ok := l.sizes.delete(index); ok && v == 0 {
		l.spots.Remove(index)
	}

	off, ok := l.offsets.delete(index)
	if !ok {
		return l.invariant(ErrOutOfSync, "offset index missing a removed run")
	}
	l.pixels.delete(off)
	return nil
}

// propagate rebuilds the offset and pixel maps for every run at or after
// the one containing max(start-1, 0), anchored on that run's current
// offset. Stale reverse entries for the suffix are dropped first so the
// pixel map stays an exact inverse of the offset map. Cost is linear in
// the number of runs from the anchor to the end of the index.
func (l *OffsetList) propagate(start uint32) error {
	anchor := start
	if anchor > 0 {
		anchor--
	}

	seed, ok := l.sizes.floor(anchor)
	if !ok {
		return l.invariant(ErrNoRun, "size index has no run at or below the propagation anchor")
	}

	l.sizes.ascendFrom(seed.key, func(e entry) bool {
		if old, ok := l.offsets.get(e.key); ok {
			l.pixels.delete(old)
		}
		return true
	})

	prevOffset, _ := l.offsets.get(seed.key) // zero before the first pass
	prevIndex := seed.key
	prevSize := seed.value

	l.sizes.ascendFrom(seed.key, func(e entry) bool {
		offset := (e.key-prevIndex)*prevSize + prevOffset
		l.offsets.put(e.key, offset)
		l.pixels.put(offset, e.key)
		prevIndex, prevSize, prevOffset = e.key, e.value, offset
		return true
	})

	l.stats.mu.Lock()
	l.stats.Propagations++
	l.stats.mu.Unlock()

	return nil
}

// invariant reports a failed cross-map consistency expectation. The assert
// handler aborts by default; the wrapped error remains for callers that
// install a non-fatal exit function.
func (l *OffsetList) invariant(err error, detail string) error {
	l.asserts.Assert(context.Background(), false, detail)
	return fmt.Errorf("%s: %w", detail, err)
}

func (l *OffsetList) syncCounts() {
	l.stats.mu.Lock()
	l.stats.Runs = int64(l.sizes.len())
	l.stats.ReservedSpots = int64(l.spots.GetCardinality())
	l.stats.mu.Unlock()
}
