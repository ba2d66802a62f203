package widgetdata

// Shape names the structure a payload carries.
type Shape string

const (
	ShapeCategorical Shape = "categorical"
	ShapeCoordinate  Shape = "coordinate"
	ShapeRadarAxes   Shape = "radar_axes"
	ShapeTable       Shape = "table"
	ShapeKPI         Shape = "kpi"
)

// Trend directions
const (
	TrendUp   = "up"
	TrendDown = "down"
)

// Payload is the widget-ready output. Exactly one of Chart, Points, Table or
// KPI is set, matching Shape. Empty marks a "no data" state for the renderer.
type Payload struct {
	Type   string     `json:"type"`
	Shape  Shape      `json:"shape"`
	Empty  bool       `json:"empty"`
	Chart  *ChartData `json:"chart,omitempty"`
	Points *PointData `json:"points,omitempty"`
	Table  *TableData `json:"table,omitempty"`
	KPI    *KPIData   `json:"kpi,omitempty"`
}

// ChartData backs the categorical and radar-axes shapes.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// PointData backs the coordinate shape.
type PointData struct {
	Datasets []PointDataset `json:"datasets"`
}

type PointDataset struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Point is one scatter point; R is set for bubbles only.
type Point struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	R *float64 `json:"r,omitempty"`
}

type TableData struct {
	Columns []Column         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Column types
const (
	ColumnString = "string"
	ColumnNumber = "number"
	ColumnDate   = "date"
)

type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// KPIData is a single scalar with an optional trend against the previous row.
type KPIData struct {
	Value        any     `json:"value"`
	Label        string  `json:"label"`
	Trend        *string `json:"trend"`
	TrendPercent float64 `json:"trendPercent"`
}
