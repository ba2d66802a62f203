package widgetdata

import (
	"fmt"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
)

// coordinateAdapter emits one point per row for scatter and bubble widgets.
// Buckets are ignored.
type coordinateAdapter struct {
	withRadius bool
}

func (coordinateAdapter) Shape() Shape { return ShapeCoordinate }

func (a coordinateAdapter) Build(in Input) Payload {
	var datasets []PointDataset
	if a.withRadius {
		datasets = bubbleDatasets(in.Source.Rows, in.Config.BubbleMetrics)
	} else {
		datasets = scatterDatasets(in.Source.Rows, in.Config.ScatterMetrics)
	}

	empty := true
	for _, ds := range datasets {
		if len(ds.Points) > 0 {
			empty = false
			break
		}
	}
	return Payload{
		Shape:  ShapeCoordinate,
		Empty:  empty,
		Points: &PointData{Datasets: datasets},
	}
}

func scatterDatasets(rows []aggregation.Row, specs []aggregation.ScatterMetricSpec) []PointDataset {
	datasets := []PointDataset{}
	for _, spec := range specs {
		if spec.X == "" || spec.Y == "" {
			continue
		}
		points := make([]Point, len(rows))
		for i, row := range rows {
			points[i] = Point{X: aggregation.Number(row[spec.X]), Y: aggregation.Number(row[spec.Y])}
		}
		datasets = append(datasets, PointDataset{Label: pointLabel(spec.Label, spec.X, spec.Y), Points: points})
	}
	return datasets
}

func bubbleDatasets(rows []aggregation.Row, specs []aggregation.BubbleMetricSpec) []PointDataset {
	datasets := []PointDataset{}
	for _, spec := range specs {
		if spec.X == "" || spec.Y == "" || spec.R == "" {
			continue
		}
		points := make([]Point, len(rows))
		for i, row := range rows {
			r := aggregation.Number(row[spec.R])
			points[i] = Point{X: aggregation.Number(row[spec.X]), Y: aggregation.Number(row[spec.Y]), R: &r}
		}
		datasets = append(datasets, PointDataset{Label: pointLabel(spec.Label, spec.X, spec.Y), Points: points})
	}
	return datasets
}

func pointLabel(label, x, y string) string {
	if label != "" {
		return label
	}
	return fmt.Sprintf("%s vs %s", y, x)
}
