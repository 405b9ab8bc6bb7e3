package volist

import "sync"

// OffsetListStats tracks operation counts and current cardinality for an
// offset list.
type OffsetListStats struct {
	Runs             int64
	ReservedSpots    int64
	Insertions       int64
	SpotReservations int64
	Removals         int64
	Propagations     int64
	PointQueries     int64
	RangeQueries     int64
	mu               sync.RWMutex
}

// GetStats returns a copy of the current statistics.
func (l *OffsetList) GetStats() OffsetListStats {
	l.stats.mu.RLock()
	defer l.stats.mu.RUnlock()

	return OffsetListStats{
		Runs:             l.stats.Runs,
		ReservedSpots:    l.stats.ReservedSpots,
		Insertions:       l.stats.Insertions,
		SpotReservations: l.stats.SpotReservations,
		Removals:         l.stats.Removals,
		Propagations:     l.stats.Propagations,
		PointQueries:     l.stats.PointQueries,
		RangeQueries:     l.stats.RangeQueries,
	}
}
