package widgetdata

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
)

var monthlyRows = []aggregation.Row{
	{"month": "Jan", "region": "W", "sales": 10},
	{"month": "Jan", "region": "E", "sales": 5},
	{"month": "Feb", "region": "W", "sales": 7},
	{"month": "Jan", "region": "W", "sales": 1},
}

func TestCategoricalSplitSeries(t *testing.T) {
	cfg := aggregation.WidgetConfig{
		Buckets:    []aggregation.BucketSpec{{Field: "month"}},
		Metrics:    []aggregation.MetricSpec{{Field: "sales", Agg: aggregation.AggSum}, {Agg: aggregation.AggCount}},
		SplitField: "region",
	}

	got := Process(TypeBar, Source{Rows: monthlyRows}, cfg)

	want := &ChartData{
		Labels: []string{"Jan", "Feb"},
		Datasets: []Dataset{
			{Label: "W", Data: []float64{11, 7}},
			{Label: "E", Data: []float64{5, 0}},
		},
	}
	if diff := cmp.Diff(want, got.Chart); diff != "" {
		t.Fatalf("chart mismatch (-want +got):\n%s", diff)
	}
}

func TestCategoricalDatasetFilters(t *testing.T) {
	cfg := aggregation.WidgetConfig{
		Buckets: []aggregation.BucketSpec{{Field: "month"}},
		Metrics: []aggregation.MetricSpec{
			{Field: "sales", Agg: aggregation.AggSum},
			{
				Field:          "sales",
				Agg:            aggregation.AggSum,
				Label:          "West",
				DatasetFilters: []aggregation.FilterSpec{{Field: "region", Value: "W"}},
			},
		},
	}

	got := Process(TypeLine, Source{Rows: monthlyRows}, cfg)

	want := &ChartData{
		Labels: []string{"Jan", "Feb"},
		Datasets: []Dataset{
			{Label: "sum(sales)", Data: []float64{16, 7}},
			{Label: "West", Data: []float64{11, 7}},
		},
	}
	if diff := cmp.Diff(want, got.Chart); diff != "" {
		t.Fatalf("chart mismatch (-want +got):\n%s", diff)
	}
}

func TestCategoricalWithoutMetricsIsEmpty(t *testing.T) {
	cfg := aggregation.WidgetConfig{Buckets: []aggregation.BucketSpec{{Field: "month"}}}

	got := Process(TypeArea, Source{Rows: monthlyRows}, cfg)
	if !got.Empty {
		t.Fatal("expected empty payload without metrics")
	}
	if got.Chart == nil || len(got.Chart.Datasets) != 0 {
		t.Fatalf("expected no datasets, got %+v", got.Chart)
	}
}

func TestCategoricalWithoutBuckets(t *testing.T) {
	cfg := aggregation.WidgetConfig{Metrics: []aggregation.MetricSpec{{Field: "sales", Agg: aggregation.AggMax}}}

	got := Process(TypeDoughnut, Source{Rows: monthlyRows}, cfg)
	want := &ChartData{
		Labels:   []string{aggregation.ImplicitGroupKey},
		Datasets: []Dataset{{Label: "max(sales)", Data: []float64{10}}},
	}
	if diff := cmp.Diff(want, got.Chart); diff != "" {
		t.Fatalf("chart mismatch (-want +got):\n%s", diff)
	}
}

func TestCoordinateShapes(t *testing.T) {
	rows := []aggregation.Row{
		{"x": 1, "y": "2", "r": 3},
		{"x": "bad", "y": 4},
	}

	scatter := Process(TypeScatter, Source{Rows: rows}, aggregation.WidgetConfig{
		Buckets:        []aggregation.BucketSpec{{Field: "x"}},
		ScatterMetrics: []aggregation.ScatterMetricSpec{{X: "x", Y: "y"}},
	})
	wantScatter := &PointData{Datasets: []PointDataset{{
		Label:  "y vs x",
		Points: []Point{{X: 1, Y: 2}, {X: 0, Y: 4}},
	}}}
	if diff := cmp.Diff(wantScatter, scatter.Points); diff != "" {
		t.Fatalf("scatter mismatch (-want +got):\n%s", diff)
	}
	if scatter.Shape != ShapeCoordinate {
		t.Fatalf("unexpected shape %q", scatter.Shape)
	}

	bubble := Process(TypeBubble, Source{Rows: rows}, aggregation.WidgetConfig{
		BubbleMetrics: []aggregation.BubbleMetricSpec{{X: "x", Y: "y", R: "r", Label: "size"}},
	})
	r1, r2 := 3.0, 0.0
	wantBubble := &PointData{Datasets: []PointDataset{{
		Label:  "size",
		Points: []Point{{X: 1, Y: 2, R: &r1}, {X: 0, Y: 4, R: &r2}},
	}}}
	if diff := cmp.Diff(wantBubble, bubble.Points); diff != "" {
		t.Fatalf("bubble mismatch (-want +got):\n%s", diff)
	}
}

func TestRadarAxes(t *testing.T) {
	rows := []aggregation.Row{
		{"team": "A", "speed": 10, "power": 4, "range": 1},
		{"team": "A", "speed": 20, "power": 6, "range": 3},
		{"team": "B", "speed": 5, "power": 8, "range": 9},
	}
	cfg := aggregation.WidgetConfig{
		RadarMetrics: []aggregation.RadarMetricSpec{
			{Fields: []string{"speed", "power"}, Agg: aggregation.AggAvg, GroupBy: "team", GroupByValue: "A"},
			{Fields: []string{"power", "range"}, Label: "All"},
		},
	}

	got := Process(TypeRadar, Source{Rows: rows}, cfg)

	want := &ChartData{
		Labels: []string{"speed", "power", "range"},
		Datasets: []Dataset{
			{Label: "A", Data: []float64{15, 5, 0}},
			{Label: "All", Data: []float64{0, 18, 13}},
		},
	}
	if diff := cmp.Diff(want, got.Chart); diff != "" {
		t.Fatalf("radar mismatch (-want +got):\n%s", diff)
	}
	if got.Shape != ShapeRadarAxes {
		t.Fatalf("unexpected shape %q", got.Shape)
	}
}

func TestRadarWithoutRadarMetricsIsCategorical(t *testing.T) {
	got := Process(TypeRadar, Source{Rows: regionRows}, aggregation.WidgetConfig{
		Buckets: []aggregation.BucketSpec{{Field: "region"}},
		Metrics: []aggregation.MetricSpec{{Field: "sales", Agg: aggregation.AggSum}},
	})
	if got.Shape != ShapeCategorical {
		t.Fatalf("unexpected shape %q", got.Shape)
	}
	if diff := cmp.Diff([]float64{150, 30}, got.Chart.Datasets[0].Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}
