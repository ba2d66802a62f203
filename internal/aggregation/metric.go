package aggregation

import "fmt"

// Compute reduces rows to a number for metric m. ok is false when avg, min or
// max found no valid numeric value; callers wanting null-on-empty semantics
// can branch on it instead of the zero default used by Aggregate.
func Compute(rows []Row, m MetricSpec) (value float64, ok bool) {
	switch m.Agg {
	case AggCount:
		return float64(len(rows)), true
	case AggAvg:
		var sum float64
		var n int
		for _, row := range rows {
			if v, valid := ToNumber(row[m.Field]); valid {
				sum += v
				n++
			}
		}
		if n == 0 {
			return 0, false
		}
		return sum / float64(n), true
	case AggMin:
		return extreme(rows, m.Field, func(a, b float64) bool { return a < b })
	case AggMax:
		return extreme(rows, m.Field, func(a, b float64) bool { return a > b })
	case AggNone:
		v, ok := firstValue(rows, m.Field)
		return Number(v), ok
	default:
		var sum float64
		for _, row := range rows {
			sum += Number(row[m.Field])
		}
		return sum, true
	}
}

// Aggregate applies metric m to rows. The result is a float64 for numeric
// aggregations; "none" passes the first defined field value through, or "".
func Aggregate(rows []Row, m MetricSpec) any {
	if m.Agg == AggNone {
		if v, ok := firstValue(rows, m.Field); ok {
			return v
		}
		return ""
	}
	v, _ := Compute(rows, m)
	return v
}

// AggregateNumber is Aggregate coerced to a number, for numeric series.
func AggregateNumber(rows []Row, m MetricSpec) float64 {
	return Number(Aggregate(rows, m))
}

// DefaultLabel names a metric when no label is configured, e.g. "sum(sales)".
func DefaultLabel(m MetricSpec) string {
	if m.Label != "" {
		return m.Label
	}
	agg := m.Agg
	if agg == "" {
		agg = AggSum
	}
	if agg == AggCount || m.Field == "" {
		return agg
	}
	return fmt.Sprintf("%s(%s)", agg, m.Field)
}

func extreme(rows []Row, field string, better func(a, b float64) bool) (float64, bool) {
	var best float64
	found := false
	for _, row := range rows {
		v, ok := ToNumber(row[field])
		if !ok {
			continue
		}
		if !found || better(v, best) {
			best = v
			found = true
		}
	}
	return best, found
}

func firstValue(rows []Row, field string) (any, bool) {
	if len(rows) == 1 {
		v, ok := rows[0][field]
		return v, ok
	}
	for _, row := range rows {
		if v, ok := row[field]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
