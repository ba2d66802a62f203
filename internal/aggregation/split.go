package aggregation

// DeriveSplitSeries partitions rows by the distinct value of splitField in
// first-seen order. It returns nil when splitField is empty.
func DeriveSplitSeries(rows []Row, splitField string) []SplitGroup {
	if splitField == "" {
		return nil
	}
	groups := partition(rows, func(r Row) string { return KeyString(r, splitField) })
	series := make([]SplitGroup, len(groups))
	for i, g := range groups {
		series[i] = SplitGroup{Key: g.Key, Rows: g.Rows}
	}
	return series
}
