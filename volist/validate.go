package volist

import (
	"fmt"
	"log/slog"
)

// Validate performs an integrity pass over the three maps and the
// reserved-spot set. It returns one error per violated invariant; an empty
// result means the structure is internally consistent.
func (l *OffsetList) Validate() []error {
	var errs []error

	if l.sizes.empty() {
		if !l.offsets.empty() || !l.pixels.empty() {
			errs = append(errs, fmt.Errorf("orphan_entries: size index is empty but derived maps are not"))
		}
		if !l.spots.IsEmpty() {
			errs = append(errs, fmt.Errorf("orphan_spots: size index is empty but spots are still reserved"))
		}
		return errs
	}

	if l.offsets.len() != l.sizes.len() {
		errs = append(errs, fmt.Errorf("count_mismatch: size index holds %d runs, offset index %d",
			l.sizes.len(), l.offsets.len()))
	}

	// Every size run has an offset entry; no adjacent runs share a size
	// (the size-0 placeholder is exempt); every placeholder is tracked as
	// a reserved spot.
	prevSet := false
	var prev entry
	l.sizes.ascend(func(e entry) bool {
		if _, ok := l.offsets.get(e.key); !ok {
			errs = append(errs, fmt.Errorf("offset_key_missing: run %d has no offset entry", e.key))
		}
		if e.value == 0 && !l.spots.Contains(e.key) {
			errs = append(errs, fmt.Errorf("spot_untracked: placeholder run %d is not a reserved spot", e.key))
		}
		if prevSet && e.value == prev.value && e.value != 0 {
			errs = append(errs, fmt.Errorf("unmerged_runs: runs %d and %d share size %d", prev.key, e.key, e.value))
		}
		prev, prevSet = e, true
		return true
	})

	// Every reserved spot points at a placeholder run.
	l.spots.Iterate(func(spot uint32) bool {
		if v, ok := l.sizes.get(spot); !ok || v != 0 {
			errs = append(errs, fmt.Errorf("spot_not_placeholder: reserved spot %d has no size-0 run", spot))
		}
		return true
	})

	// Offset recurrence: each run starts where the previous one ends.
	prevSet = false
	l.offsets.ascend(func(e entry) bool {
		if _, ok := l.sizes.get(e.key); !ok {
			errs = append(errs, fmt.Errorf("size_key_missing: offset entry %d has no run", e.key))
			return true
		}
		if prevSet {
			prevSize, _ := l.sizes.get(prev.key)
			want := prev.value + (e.key-prev.key)*prevSize
			if e.value != want {
				errs = append(errs, fmt.Errorf("offset_mismatch: run %d has offset %d, expected %d",
					e.key, e.value, want))
			}
		}
		prev, prevSet = e, true
		return true
	})

	// The pixel map inverts the offset map. Placeholder runs share their
	// predecessor's offset, so with reserved spots present the pixel map
	// may legitimately hold fewer entries.
	l.offsets.ascend(func(e entry) bool {
		if _, ok := l.pixels.get(e.value); !ok {
			errs = append(errs, fmt.Errorf("pixel_key_missing: offset %d of run %d has no reverse entry",
				e.value, e.key))
		}
		return true
	})
	l.pixels.ascend(func(e entry) bool {
		off, ok := l.offsets.get(e.value)
		if !ok || off != e.key {
			errs = append(errs, fmt.Errorf("pixel_entry_stale: offset %d maps to run %d, which does not own it",
				e.key, e.value))
		}
		return true
	})
	if l.spots.IsEmpty() && l.pixels.len() != l.offsets.len() {
		errs = append(errs, fmt.Errorf("pixel_count_mismatch: offset index holds %d runs, pixel index %d",
			l.offsets.len(), l.pixels.len()))
	}

	if len(errs) > 0 {
		slog.Warn("offset list validation found issues", "error_count", len(errs))
	} else {
		slog.Debug("offset list validation passed", "runs", l.sizes.len())
	}

	return errs
}
