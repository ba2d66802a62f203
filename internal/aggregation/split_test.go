package aggregation

import "testing"

func TestDeriveSplitSeries(t *testing.T) {
	rows := []Row{
		{"region": "West", "v": 1},
		{"region": "East", "v": 2},
		{"region": "West", "v": 3},
		{"v": 4},
	}

	got := DeriveSplitSeries(rows, "region")
	if len(got) != 3 {
		t.Fatalf("expected 3 series, got %d", len(got))
	}
	wantKeys := []string{"West", "East", "undefined"}
	wantCounts := []int{2, 1, 1}
	for i, s := range got {
		if s.Key != wantKeys[i] || len(s.Rows) != wantCounts[i] {
			t.Fatalf("series %d mismatch: key=%q rows=%d", i, s.Key, len(s.Rows))
		}
	}
}

func TestDeriveSplitSeriesEmptyField(t *testing.T) {
	if got := DeriveSplitSeries([]Row{{"a": 1}}, ""); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
