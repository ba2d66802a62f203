package widgetdata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
)

// DocCountColumn holds the per-group row count when no metric is configured.
const DocCountColumn = "_doc_count"

type tableAdapter struct{}

func (tableAdapter) Shape() Shape { return ShapeTable }

func (tableAdapter) Build(in Input) Payload {
	var table *TableData
	if len(in.Buckets) > 0 {
		table = bucketTable(in)
	} else {
		table = rawTable(in)
	}
	return Payload{
		Shape: ShapeTable,
		Empty: len(table.Rows) == 0,
		Table: table,
	}
}

type metricColumn struct {
	key    string
	metric aggregation.MetricSpec
}

// bucketTable emits one row per leaf of the bucket hierarchy, with one
// column per bucket level followed by the metric columns.
func bucketTable(in Input) *TableData {
	used := map[string]bool{}
	columns := make([]Column, 0, len(in.Buckets)+len(in.Config.Metrics))
	levelKeys := make([]string, len(in.Buckets))
	for i, b := range in.Buckets {
		key := uniqueKey(b.Field, used)
		levelKeys[i] = key
		columns = append(columns, Column{Key: key, Label: firstNonEmpty(b.Label, b.Field), Type: bucketColumnType(b)})
	}

	var metrics []metricColumn
	for _, m := range in.Config.Metrics {
		key := uniqueKey(metricKey(m), used)
		metrics = append(metrics, metricColumn{key: key, metric: m})
		columns = append(columns, Column{Key: key, Label: aggregation.DefaultLabel(m), Type: metricColumnType(m)})
	}
	if len(metrics) == 0 {
		key := uniqueKey(DocCountColumn, used)
		metrics = append(metrics, metricColumn{key: key, metric: aggregation.MetricSpec{Agg: aggregation.AggCount}})
		columns = append(columns, Column{Key: key, Label: "Count", Type: ColumnNumber})
	}

	groups := aggregation.Build(in.Source.Rows, in.Buckets)
	rows := []map[string]any{}
	var walk func(groups []aggregation.BucketGroup, depth int, path map[string]any)
	walk = func(groups []aggregation.BucketGroup, depth int, path map[string]any) {
		for _, g := range groups {
			next := make(map[string]any, len(columns))
			for k, v := range path {
				next[k] = v
			}
			next[levelKeys[depth]] = g.Key
			if !g.IsLeaf() {
				walk(g.Children, depth+1, next)
				continue
			}
			for _, mc := range metrics {
				next[mc.key] = aggregation.Aggregate(aggregation.ApplyFilters(g.Rows, mc.metric.DatasetFilters), mc.metric)
			}
			rows = append(rows, next)
		}
	}
	walk(groups, 0, nil)

	return &TableData{Columns: columns, Rows: rows}
}

// rawTable passes the rows through with formatted cells. Columns come from
// the config, else the source's field order, else the union of row keys.
func rawTable(in Input) *TableData {
	rows := in.Source.Rows

	var columns []Column
	switch {
	case len(in.Config.Columns) > 0:
		for _, c := range in.Config.Columns {
			if c.Key == "" {
				continue
			}
			columns = append(columns, Column{Key: c.Key, Label: firstNonEmpty(c.Label, c.Key), Type: inferColumnType(rows, c.Key)})
		}
	case len(in.Source.Fields) > 0:
		for _, f := range in.Source.Fields {
			columns = append(columns, Column{Key: f, Label: f, Type: inferColumnType(rows, f)})
		}
	default:
		for _, f := range rowKeys(rows) {
			columns = append(columns, Column{Key: f, Label: f, Type: inferColumnType(rows, f)})
		}
	}
	if columns == nil {
		columns = []Column{}
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		cells := make(map[string]any, len(columns))
		for _, c := range columns {
			cells[c.Key] = formatCell(row[c.Key])
		}
		out[i] = cells
	}
	return &TableData{Columns: columns, Rows: out}
}

func rowKeys(rows []aggregation.Row) []string {
	set := linkedhashset.New()
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			set.Add(k)
		}
	}
	out := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		out = append(out, v.(string))
	}
	return out
}

func formatCell(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		return fmt.Sprint(val)
	}
	return v
}

func inferColumnType(rows []aggregation.Row, key string) string {
	for _, row := range rows {
		v, ok := row[key]
		if !ok || v == nil || v == "" {
			continue
		}
		if aggregation.IsTimestamp(v) {
			return ColumnDate
		}
		if _, ok := aggregation.ToNumber(v); ok {
			return ColumnNumber
		}
		return ColumnString
	}
	return ColumnString
}

func bucketColumnType(b aggregation.BucketSpec) string {
	switch b.Type {
	case aggregation.BucketHistogram:
		return ColumnNumber
	case aggregation.BucketDateHistogram:
		return ColumnDate
	}
	return ColumnString
}

func metricColumnType(m aggregation.MetricSpec) string {
	if m.Agg == aggregation.AggNone {
		return ColumnString
	}
	return ColumnNumber
}

// metricKey is the column key of a metric, e.g. "sum_sales" or "count".
func metricKey(m aggregation.MetricSpec) string {
	agg := firstNonEmpty(m.Agg, aggregation.AggSum)
	if agg == aggregation.AggCount || m.Field == "" {
		return agg
	}
	return agg + "_" + m.Field
}

func uniqueKey(key string, used map[string]bool) string {
	candidate := key
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", key, n)
	}
	used[candidate] = true
	return candidate
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
