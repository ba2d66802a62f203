package services

import (
	"github.com/dgraph-io/ristretto"
)

// Snapshots are few and large, so admission counters are sized for sources
// rather than rows.
const snapshotCounters = 100_000

// NewSnapshotCache builds the row snapshot cache. Costs are counted in rows,
// so maxRows bounds the total number of cached rows across all sources.
func NewSnapshotCache(maxRows int64) (*ristretto.Cache, error) {
	if maxRows <= 0 {
		maxRows = 1
	}
	return ristretto.NewCache(&ristretto.Config{
		NumCounters:        snapshotCounters,
		MaxCost:            maxRows,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
}
