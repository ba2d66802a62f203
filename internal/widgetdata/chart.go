package widgetdata

import (
	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
)

// categoricalAdapter serves bar, line, area, pie, doughnut and polar area
// widgets: labels from the first bucket level, one series per metric or per
// split key.
type categoricalAdapter struct{}

func (categoricalAdapter) Shape() Shape { return ShapeCategorical }

func (categoricalAdapter) Build(in Input) Payload {
	chart := buildCategorical(in)
	return Payload{
		Shape: ShapeCategorical,
		Empty: len(in.Source.Rows) == 0 || len(chart.Datasets) == 0,
		Chart: chart,
	}
}

func buildCategorical(in Input) *ChartData {
	groups := aggregation.Build(in.Source.Rows, in.Buckets)
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.Key
	}

	chart := &ChartData{Labels: labels, Datasets: []Dataset{}}
	if len(in.Config.Metrics) == 0 {
		return chart
	}

	if in.Config.SplitField != "" {
		chart.Datasets = splitDatasets(in, labels)
		return chart
	}

	for _, m := range in.Config.Metrics {
		data := make([]float64, len(groups))
		for i, g := range groups {
			data[i] = metricValue(g.Rows, m)
		}
		chart.Datasets = append(chart.Datasets, Dataset{Label: aggregation.DefaultLabel(m), Data: data})
	}
	return chart
}

// splitDatasets renders one dataset per split key using the first metric.
// Each split group is re-keyed by the primary bucket so its values line up
// with the chart labels; a label the split group lacks aggregates nothing.
func splitDatasets(in Input, labels []string) []Dataset {
	m := in.Config.Metrics[0]
	series := aggregation.DeriveSplitSeries(in.Source.Rows, in.Config.SplitField)

	datasets := make([]Dataset, 0, len(series))
	for _, s := range series {
		byLabel := groupByPrimary(s.Rows, in.Buckets)
		data := make([]float64, len(labels))
		for i, label := range labels {
			data[i] = metricValue(byLabel[label], m)
		}
		datasets = append(datasets, Dataset{Label: s.Key, Data: data})
	}
	return datasets
}

func groupByPrimary(rows []aggregation.Row, buckets []aggregation.BucketSpec) map[string][]aggregation.Row {
	if len(buckets) == 0 {
		return map[string][]aggregation.Row{aggregation.ImplicitGroupKey: rows}
	}
	out := make(map[string][]aggregation.Row)
	for _, g := range aggregation.Partition(rows, buckets[0]) {
		out[g.Key] = g.Rows
	}
	return out
}

// metricValue aggregates m over rows after the metric's own dataset filters.
func metricValue(rows []aggregation.Row, m aggregation.MetricSpec) float64 {
	return aggregation.AggregateNumber(aggregation.ApplyFilters(rows, m.DatasetFilters), m)
}
