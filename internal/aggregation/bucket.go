package aggregation

import (
	"sort"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/GregMSThompson/dashboard-backend/pkg/helpers"
)

// ImplicitGroupKey keys the single group returned when no bucket is configured.
const ImplicitGroupKey = "all"

const defaultMinDocCount = 1

// Build partitions rows into the bucket hierarchy described by specs. Specs
// with an empty field are skipped; when none remain the result is one group
// holding every row, so metrics can still run over the full set.
func Build(rows []Row, specs []BucketSpec) []BucketGroup {
	active := ActiveBuckets(specs)
	if len(active) == 0 {
		return []BucketGroup{{Key: ImplicitGroupKey, Rows: rows}}
	}
	return buildLevel(rows, active)
}

// ActiveBuckets drops specs without a field.
func ActiveBuckets(specs []BucketSpec) []BucketSpec {
	active := make([]BucketSpec, 0, len(specs))
	for _, s := range specs {
		if s.Field != "" {
			active = append(active, s)
		}
	}
	return active
}

// Partition groups rows by spec's key for each row, in first-seen key order.
// No pruning, ordering or truncation is applied.
func Partition(rows []Row, spec BucketSpec) []BucketGroup {
	return partition(rows, func(r Row) string { return KeyFor(spec, r) })
}

// KeyFor returns the group key of row at spec's level.
func KeyFor(spec BucketSpec, row Row) string {
	if spec.Interval != "" {
		if key, ok := binKey(spec, row[spec.Field]); ok {
			return key
		}
	}
	return KeyString(row, spec.Field)
}

func buildLevel(rows []Row, specs []BucketSpec) []BucketGroup {
	spec := specs[0]

	groups := Partition(rows, spec)
	minDocs := helpers.ValueOr(spec.MinDocCount, defaultMinDocCount)
	if minDocs == 0 {
		groups = fillEmptyBins(groups, spec)
	}
	groups = prune(groups, minDocs)
	orderGroups(groups, spec)
	if size := helpers.ValueOr(spec.Size, 0); size > 0 && len(groups) > size {
		groups = groups[:size]
	}

	if len(specs) > 1 {
		for i := range groups {
			children := buildLevel(groups[i].Rows, specs[1:])
			if children == nil {
				children = []BucketGroup{}
			}
			groups[i].Children = children
		}
	}
	return groups
}

func partition(rows []Row, key func(Row) string) []BucketGroup {
	index := linkedhashmap.New()
	for _, row := range rows {
		k := key(row)
		var members []Row
		if v, found := index.Get(k); found {
			members = v.([]Row)
		}
		index.Put(k, append(members, row))
	}

	groups := make([]BucketGroup, 0, index.Size())
	it := index.Iterator()
	for it.Next() {
		groups = append(groups, BucketGroup{Key: it.Key().(string), Rows: it.Value().([]Row)})
	}
	return groups
}

func prune(groups []BucketGroup, threshold int) []BucketGroup {
	if threshold <= 0 {
		return groups
	}
	kept := make([]BucketGroup, 0, len(groups))
	for _, g := range groups {
		if g.Count() >= threshold {
			kept = append(kept, g)
		}
	}
	return kept
}

// orderGroups sorts in place: terms by row count (desc by default), histogram
// types by key (asc by default). Ties keep first-seen order.
func orderGroups(groups []BucketGroup, spec BucketSpec) {
	switch spec.Type {
	case BucketHistogram, BucketDateHistogram:
		desc := spec.Order == OrderDesc
		sort.SliceStable(groups, func(i, j int) bool {
			c := CompareKeys(groups[i].Key, groups[j].Key)
			if desc {
				return c > 0
			}
			return c < 0
		})
	default:
		asc := spec.Order == OrderAsc
		sort.SliceStable(groups, func(i, j int) bool {
			if asc {
				return groups[i].Count() < groups[j].Count()
			}
			return groups[i].Count() > groups[j].Count()
		})
	}
}

// CompareKeys orders bucket keys: numeric keys numerically and before
// non-numeric ones, everything else lexically (which sorts ISO dates).
func CompareKeys(a, b string) int {
	x, okA := ToNumber(a)
	y, okB := ToNumber(b)
	switch {
	case okA && okB:
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}
