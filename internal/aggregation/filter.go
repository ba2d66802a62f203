package aggregation

import "strings"

// ApplyFilters returns the rows satisfying every active filter. Inert filters
// (empty field or value) match everything, and with no active filter the
// input slice is returned as is.
func ApplyFilters(rows []Row, filters []FilterSpec) []Row {
	active := activeFilters(filters)
	if len(active) == 0 {
		return rows
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if matchesAll(row, active) {
			out = append(out, row)
		}
	}
	return out
}

// IsInert reports whether f is missing a field or a value.
func (f FilterSpec) IsInert() bool {
	if f.Field == "" || f.Value == nil {
		return true
	}
	s, ok := f.Value.(string)
	return ok && s == ""
}

// Matches evaluates f against a single row. Inert filters always match; a
// row without the field never matches an active filter.
func (f FilterSpec) Matches(row Row) bool {
	if f.IsInert() {
		return true
	}
	v, ok := row[f.Field]
	if !ok {
		return false
	}

	switch f.Operator {
	case OpNotEquals:
		return !valuesEqual(v, f.Value)
	case OpContains:
		return strings.Contains(FormatValue(v), FormatValue(f.Value))
	case OpNotContains:
		return !strings.Contains(FormatValue(v), FormatValue(f.Value))
	case OpStartsWith:
		return strings.HasPrefix(FormatValue(v), FormatValue(f.Value))
	case OpEndsWith:
		return strings.HasSuffix(FormatValue(v), FormatValue(f.Value))
	case OpGreaterThan:
		return compareNumbers(v, f.Value, func(a, b float64) bool { return a > b })
	case OpLessThan:
		return compareNumbers(v, f.Value, func(a, b float64) bool { return a < b })
	case OpGreaterEqual:
		return compareNumbers(v, f.Value, func(a, b float64) bool { return a >= b })
	case OpLessEqual:
		return compareNumbers(v, f.Value, func(a, b float64) bool { return a <= b })
	default:
		return valuesEqual(v, f.Value)
	}
}

func activeFilters(filters []FilterSpec) []FilterSpec {
	var active []FilterSpec
	for _, f := range filters {
		if !f.IsInert() {
			active = append(active, f)
		}
	}
	return active
}

func matchesAll(row Row, filters []FilterSpec) bool {
	for _, f := range filters {
		if !f.Matches(row) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if FormatValue(a) == FormatValue(b) {
		return true
	}
	x, okA := ToNumber(a)
	y, okB := ToNumber(b)
	return okA && okB && x == y
}

func compareNumbers(a, b any, cmp func(a, b float64) bool) bool {
	x, ok := ToNumber(a)
	if !ok {
		return false
	}
	y, ok := ToNumber(b)
	if !ok {
		return false
	}
	return cmp(x, y)
}
