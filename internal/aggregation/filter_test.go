package aggregation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var filterRows = []Row{
	{"region": "North", "sales": 100.0, "code": "AB-1"},
	{"region": "South", "sales": "30"},
	{"region": "north", "sales": "n/a", "code": "CD-2"},
	{"sales": 75},
}

func TestApplyFiltersIdentity(t *testing.T) {
	got := ApplyFilters(filterRows, nil)
	if diff := cmp.Diff(filterRows, got); diff != "" {
		t.Fatalf("no filters should be identity (-want +got):\n%s", diff)
	}

	got = ApplyFilters(filterRows, []FilterSpec{{Field: "", Value: ""}, {Field: "region", Value: ""}, {Field: "region"}})
	if diff := cmp.Diff(filterRows, got); diff != "" {
		t.Fatalf("inert filters should be identity (-want +got):\n%s", diff)
	}
}

func TestApplyFiltersOperators(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterSpec
		want   int
	}{
		{name: "default equals", filter: FilterSpec{Field: "region", Value: "North"}, want: 1},
		{name: "equals numeric string", filter: FilterSpec{Field: "sales", Value: "100", Operator: OpEquals}, want: 1},
		{name: "not equals", filter: FilterSpec{Field: "region", Value: "North", Operator: OpNotEquals}, want: 2},
		{name: "contains is case sensitive", filter: FilterSpec{Field: "region", Value: "orth", Operator: OpContains}, want: 2},
		{name: "contains upper", filter: FilterSpec{Field: "region", Value: "Nor", Operator: OpContains}, want: 1},
		{name: "not contains", filter: FilterSpec{Field: "region", Value: "orth", Operator: OpNotContains}, want: 1},
		{name: "starts with", filter: FilterSpec{Field: "code", Value: "AB", Operator: OpStartsWith}, want: 1},
		{name: "ends with", filter: FilterSpec{Field: "code", Value: "-2", Operator: OpEndsWith}, want: 1},
		{name: "greater than skips non numeric", filter: FilterSpec{Field: "sales", Value: 50, Operator: OpGreaterThan}, want: 2},
		{name: "less than", filter: FilterSpec{Field: "sales", Value: "50", Operator: OpLessThan}, want: 1},
		{name: "greater equal", filter: FilterSpec{Field: "sales", Value: 75, Operator: OpGreaterEqual}, want: 2},
		{name: "less equal", filter: FilterSpec{Field: "sales", Value: 30, Operator: OpLessEqual}, want: 1},
		{name: "non numeric filter value", filter: FilterSpec{Field: "sales", Value: "lots", Operator: OpGreaterThan}, want: 0},
		{name: "unknown operator falls back to equals", filter: FilterSpec{Field: "region", Value: "South", Operator: "like"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(filterRows, []FilterSpec{tt.filter})
			if len(got) != tt.want {
				t.Fatalf("row count mismatch: got %d want %d (%v)", len(got), tt.want, got)
			}
		})
	}
}

func TestApplyFiltersMissingFieldExcludes(t *testing.T) {
	got := ApplyFilters(filterRows, []FilterSpec{{Field: "code", Value: "ZZ", Operator: OpNotEquals}})
	if len(got) != 2 {
		t.Fatalf("rows without the field should be excluded, got %d rows", len(got))
	}
}

func TestApplyFiltersAND(t *testing.T) {
	got := ApplyFilters(filterRows, []FilterSpec{
		{Field: "sales", Value: 10, Operator: OpGreaterThan},
		{Field: "region", Value: "S", Operator: OpStartsWith},
	})
	if len(got) != 1 || got[0]["region"] != "South" {
		t.Fatalf("unexpected rows: %v", got)
	}
}

func TestApplyFiltersDoesNotMutateInput(t *testing.T) {
	in := []Row{{"a": 1}, {"a": 2}}
	_ = ApplyFilters(in, []FilterSpec{{Field: "a", Value: 2}})
	if len(in) != 2 || in[0]["a"] != 1 {
		t.Fatalf("input modified: %v", in)
	}
}
