package aggregation

// Row is a single source record keyed by field name. The engine never mutates rows.
type Row map[string]any

// Bucket types
const (
	BucketTerms         = "terms"
	BucketHistogram     = "histogram"
	BucketDateHistogram = "date_histogram"
)

// Bucket orders
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Metric aggregations
const (
	AggSum   = "sum"
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
	AggCount = "count"
	AggNone  = "none"
)

// Filter operators
const (
	OpEquals       = "equals"
	OpNotEquals    = "not_equals"
	OpContains     = "contains"
	OpNotContains  = "not_contains"
	OpGreaterThan  = "greater_than"
	OpLessThan     = "less_than"
	OpGreaterEqual = "greater_equal"
	OpLessEqual    = "less_equal"
	OpStartsWith   = "starts_with"
	OpEndsWith     = "ends_with"
)

// BucketSpec describes one grouping level.
type BucketSpec struct {
	Field       string `firestore:"field" json:"field"`
	Label       string `firestore:"label,omitempty" json:"label,omitempty"`
	Type        string `firestore:"type,omitempty" json:"type,omitempty"`
	Order       string `firestore:"order,omitempty" json:"order,omitempty"`
	Size        *int   `firestore:"size,omitempty" json:"size,omitempty"`
	MinDocCount *int   `firestore:"minDocCount,omitempty" json:"minDocCount,omitempty"`
	// Interval enables true binning for histogram ("10", "0.5") and
	// date_histogram ("day", "month", ...) buckets.
	Interval string `firestore:"interval,omitempty" json:"interval,omitempty"`
}

// MetricSpec describes one aggregate. Field is ignored for count.
type MetricSpec struct {
	Field          string       `firestore:"field,omitempty" json:"field,omitempty"`
	Agg            string       `firestore:"agg" json:"agg"`
	Label          string       `firestore:"label,omitempty" json:"label,omitempty"`
	DatasetFilters []FilterSpec `firestore:"datasetFilters,omitempty" json:"datasetFilters,omitempty"`
}

type ScatterMetricSpec struct {
	X     string `firestore:"x" json:"x"`
	Y     string `firestore:"y" json:"y"`
	Label string `firestore:"label,omitempty" json:"label,omitempty"`
}

type BubbleMetricSpec struct {
	X     string `firestore:"x" json:"x"`
	Y     string `firestore:"y" json:"y"`
	R     string `firestore:"r" json:"r"`
	Label string `firestore:"label,omitempty" json:"label,omitempty"`
}

// RadarMetricSpec is one radar dataset: one aggregate per axis field over the
// rows where GroupBy equals GroupByValue (all rows when either is empty).
type RadarMetricSpec struct {
	Fields       []string `firestore:"fields" json:"fields"`
	Agg          string   `firestore:"agg,omitempty" json:"agg,omitempty"`
	GroupBy      string   `firestore:"groupBy,omitempty" json:"groupBy,omitempty"`
	GroupByValue string   `firestore:"groupByValue,omitempty" json:"groupByValue,omitempty"`
	Label        string   `firestore:"label,omitempty" json:"label,omitempty"`
}

// FilterSpec is a single predicate. An empty Field or Value makes it inert.
type FilterSpec struct {
	Field    string `firestore:"field" json:"field"`
	Value    any    `firestore:"value" json:"value"`
	Operator string `firestore:"operator,omitempty" json:"operator,omitempty"`
}

// TableColumn is an explicitly configured table column.
type TableColumn struct {
	Key   string `firestore:"key" json:"key"`
	Label string `firestore:"label,omitempty" json:"label,omitempty"`
}

// WidgetConfig is the declarative widget configuration as persisted and edited.
// Bucket is the deprecated single-bucket shape kept for older readers.
type WidgetConfig struct {
	Buckets        []BucketSpec        `firestore:"buckets,omitempty" json:"buckets,omitempty"`
	Bucket         *BucketSpec         `firestore:"bucket,omitempty" json:"bucket,omitempty"`
	Metrics        []MetricSpec        `firestore:"metrics,omitempty" json:"metrics,omitempty"`
	Filters        []FilterSpec        `firestore:"filters,omitempty" json:"filters,omitempty"`
	ScatterMetrics []ScatterMetricSpec `firestore:"scatterMetrics,omitempty" json:"scatterMetrics,omitempty"`
	BubbleMetrics  []BubbleMetricSpec  `firestore:"bubbleMetrics,omitempty" json:"bubbleMetrics,omitempty"`
	RadarMetrics   []RadarMetricSpec   `firestore:"radarMetrics,omitempty" json:"radarMetrics,omitempty"`
	SplitField     string              `firestore:"splitField,omitempty" json:"splitField,omitempty"`
	Columns        []TableColumn       `firestore:"columns,omitempty" json:"columns,omitempty"`
	ShowTrend      bool                `firestore:"showTrend,omitempty" json:"showTrend,omitempty"`
	WidgetParams   map[string]any      `firestore:"widgetParams,omitempty" json:"widgetParams,omitempty"`
}

// BucketGroup is one node of the bucket hierarchy. Children is nil on leaves.
type BucketGroup struct {
	Key      string        `json:"key"`
	Rows     []Row         `json:"-"`
	Children []BucketGroup `json:"children,omitempty"`
}

// Count returns the number of rows in the group.
func (g BucketGroup) Count() int { return len(g.Rows) }

// IsLeaf reports whether no further bucket level was configured below g.
func (g BucketGroup) IsLeaf() bool { return g.Children == nil }

// SplitGroup is one split series: the rows sharing a split field value.
type SplitGroup struct {
	Key  string `json:"key"`
	Rows []Row  `json:"-"`
}
