package widgetdata

import (
	"fmt"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
)

// radarAdapter renders one axis per configured field when radar metrics are
// present, and falls back to the categorical shape otherwise.
type radarAdapter struct{}

func (radarAdapter) Shape() Shape { return ShapeRadarAxes }

func (radarAdapter) Build(in Input) Payload {
	if len(in.Config.RadarMetrics) == 0 {
		p := categoricalAdapter{}.Build(in)
		p.Shape = ShapeCategorical
		return p
	}

	axes := radarAxes(in.Config.RadarMetrics)
	chart := &ChartData{Labels: axes, Datasets: make([]Dataset, 0, len(in.Config.RadarMetrics))}
	for i, rm := range in.Config.RadarMetrics {
		rows := in.Source.Rows
		if rm.GroupBy != "" && rm.GroupByValue != "" {
			rows = aggregation.ApplyFilters(rows, []aggregation.FilterSpec{
				{Field: rm.GroupBy, Value: rm.GroupByValue, Operator: aggregation.OpEquals},
			})
		}

		own := make(map[string]bool, len(rm.Fields))
		for _, f := range rm.Fields {
			own[f] = true
		}

		data := make([]float64, len(axes))
		for j, axis := range axes {
			m := aggregation.MetricSpec{Field: axis, Agg: rm.Agg}
			if own[axis] {
				data[j] = aggregation.AggregateNumber(rows, m)
			} else {
				data[j] = aggregation.AggregateNumber(nil, m)
			}
		}
		chart.Datasets = append(chart.Datasets, Dataset{Label: radarLabel(rm, i), Data: data})
	}

	return Payload{
		Shape: ShapeRadarAxes,
		Empty: len(in.Source.Rows) == 0 || len(axes) == 0,
		Chart: chart,
	}
}

// radarAxes is the ordered union of every dataset's fields.
func radarAxes(metrics []aggregation.RadarMetricSpec) []string {
	set := linkedhashset.New()
	for _, rm := range metrics {
		for _, f := range rm.Fields {
			if f != "" {
				set.Add(f)
			}
		}
	}
	axes := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		axes = append(axes, v.(string))
	}
	return axes
}

func radarLabel(rm aggregation.RadarMetricSpec, i int) string {
	switch {
	case rm.Label != "":
		return rm.Label
	case rm.GroupByValue != "":
		return rm.GroupByValue
	}
	return fmt.Sprintf("Dataset %d", i+1)
}
