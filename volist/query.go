package volist

import "log/slog"

// locate resolves the run containing index: its start key, per-item size
// and the cumulative offset at the run start.
func (l *OffsetList) locate(index uint32) (runStart, size, offset uint32, err error) {
	e, ok := l.sizes.floor(index)
	if !ok {
		return 0, 0, 0, l.invariant(ErrNoRun, "size index has no run at or below the queried index")
	}

	off, ok := l.offsets.get(e.key)
	if !ok {
		return 0, 0, 0, l.invariant(ErrOutOfSync, "offset index missing the run containing the queried index")
	}

	return e.key, e.value, off, nil
}

// OffsetOf returns the absolute pixel offset of the item at index.
func (l *OffsetList) OffsetOf(index uint32) (uint32, error) {
	l.stats.mu.Lock()
	l.stats.PointQueries++
	l.stats.mu.Unlock()

	runStart, size, offset, err := l.locate(index)
	if err != nil {
		return 0, err
	}
	return (index-runStart)*size + offset, nil
}

// Total returns the pixel offset of the far edge of the item at index,
// i.e. the offset of the position directly after it.
func (l *OffsetList) Total(index uint32) (uint32, error) {
	l.stats.mu.Lock()
	l.stats.PointQueries++
	l.stats.mu.Unlock()

	runStart, size, offset, err := l.locate(index)
	if err != nil {
		return 0, err
	}
	return (index-runStart+1)*size + offset, nil
}

// ItemAt resolves the item at index with its size and absolute offset.
func (l *OffsetList) ItemAt(index uint32) (Item, error) {
	l.stats.mu.Lock()
	l.stats.PointQueries++
	l.stats.mu.Unlock()

	runStart, size, offset, err := l.locate(index)
	if err != nil {
		return Item{}, err
	}
	return Item{
		Index:  index,
		Size:   size,
		Offset: (index-runStart)*size + offset,
	}, nil
}

// IndexRange returns one item per index in [startIndex, endIndex], each
// carrying its run's size. Offsets are not resolved by this query and are
// left zero. An empty list yields a single degenerate zero item.
func (l *OffsetList) IndexRange(startIndex, endIndex uint32) ([]Item, error) {
	l.stats.mu.Lock()
	l.stats.RangeQueries++
	l.stats.mu.Unlock()

	if l.sizes.empty() {
		return []Item{{}}, nil
	}
	if startIndex > endIndex {
		return nil, nil
	}

	runs, err := l.sizes.runsWithin(startIndex, endIndex)
	if err != nil {
		return nil, l.invariant(err, "size index has no run at or below the query start")
	}

	var items []Item
	for _, run := range runs {
		lo := max(startIndex, run.Start)
		hi := min(run.End, endIndex)
		for i := lo; ; i++ {
			items = append(items, Item{Index: i, Size: run.Value})
			if i == hi {
				break
			}
		}
	}

	slog.Debug("index range resolved",
		"start", startIndex,
		"end", endIndex,
		"items", len(items))

	return items, nil
}

// Range returns every item whose pixel offset lies in [startOffset,
// endOffset], clipped to the index window [minIndex, maxIndex]. The end
// offset must not lie beyond the last indexed pixel boundary.
//
// A placeholder run is unmeasurable: the query emits a single zero-size
// item at the placeholder's position and stops there.
func (l *OffsetList) Range(startOffset, endOffset, minIndex, maxIndex uint32) ([]Item, error) {
	l.stats.mu.Lock()
	l.stats.RangeQueries++
	l.stats.mu.Unlock()

	first, ok := l.pixels.floor(startOffset)
	if !ok {
		return nil, l.invariant(ErrNoRun, "pixel index has no run at or below the start offset")
	}
	last, ok := l.pixels.ceiling(endOffset)
	if !ok {
		return nil, ErrOffsetBeyondEnd
	}

	runs, err := l.offsets.runsWithin(first.value, last.value)
	if err != nil {
		return nil, l.invariant(err, "offset index has no run at or below the start index")
	}

	var items []Item
	for _, run := range runs {
		offset := run.Value
		cur := run.Start

		size, ok := l.sizes.get(run.Start)
		if !ok {
			return nil, l.invariant(ErrOutOfSync, "size index missing a run found in the offset index")
		}

		// Skip whole items of this run that end before the pixel window.
		if size > 0 && offset < startOffset {
			skipped := (startOffset - offset) / size
			cur += skipped
			offset += skipped * size
		}
		if cur < minIndex {
			offset += (minIndex - cur) * size
			cur = minIndex
		}

		if size == 0 {
			items = append(items, Item{Index: cur, Size: 0, Offset: offset})
			return items, nil
		}

		hi := min(run.End, maxIndex)
		for i := cur; i <= hi; i++ {
			if offset > endOffset {
				break
			}
			items = append(items, Item{Index: i, Size: size, Offset: offset})
			offset += size
			if i == LastRunEnd {
				break
			}
		}
	}

	slog.Debug("pixel range resolved",
		"start_offset", startOffset,
		"end_offset", endOffset,
		"items", len(items))

	return items, nil
}
