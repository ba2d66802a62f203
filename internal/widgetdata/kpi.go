package widgetdata

import (
	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
	"github.com/GregMSThompson/dashboard-backend/pkg/helpers"
)

type kpiAdapter struct{}

func (kpiAdapter) Shape() Shape { return ShapeKPI }

// Build aggregates the first metric (count when none is configured) over the
// filtered rows. The trend compares the metric field in the last two rows.
func (kpiAdapter) Build(in Input) Payload {
	rows := in.Source.Rows
	m := aggregation.MetricSpec{Agg: aggregation.AggCount}
	if len(in.Config.Metrics) > 0 {
		m = in.Config.Metrics[0]
	}

	kpi := &KPIData{
		Value: aggregation.Aggregate(aggregation.ApplyFilters(rows, m.DatasetFilters), m),
		Label: aggregation.DefaultLabel(m),
	}
	if in.Config.ShowTrend {
		kpi.Trend, kpi.TrendPercent = trend(rows, m.Field)
	}

	return Payload{
		Shape: ShapeKPI,
		Empty: len(rows) == 0,
		KPI:   kpi,
	}
}

func trend(rows []aggregation.Row, field string) (*string, float64) {
	if field == "" || len(rows) < 2 {
		return nil, 0
	}
	last := aggregation.Number(rows[len(rows)-1][field])
	prev := aggregation.Number(rows[len(rows)-2][field])

	var dir *string
	switch {
	case last > prev:
		dir = helpers.Ptr(TrendUp)
	case last < prev:
		dir = helpers.Ptr(TrendDown)
	}

	if prev == 0 {
		return dir, 0
	}
	return dir, (last - prev) / prev * 100
}
