package widgetdata

import (
	"sort"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
)

// Widget types
const (
	TypeBar       = "bar"
	TypeLine      = "line"
	TypeArea      = "area"
	TypePie       = "pie"
	TypeDoughnut  = "doughnut"
	TypePolarArea = "polarArea"
	TypeRadar     = "radar"
	TypeScatter   = "scatter"
	TypeBubble    = "bubble"
	TypeTable     = "table"
	TypeKPI       = "kpi"
)

// Source is the row snapshot handed to the pipeline. Fields is the source's
// declared column order and may be empty.
type Source struct {
	Rows   []aggregation.Row
	Fields []string
}

// Input is what an adapter receives: rows already narrowed by the global
// filters, the normalized config and its active bucket specs.
type Input struct {
	Type    string
	Source  Source
	Config  aggregation.WidgetConfig
	Buckets []aggregation.BucketSpec
}

// Adapter turns filtered rows and a widget config into one payload shape.
type Adapter interface {
	Shape() Shape
	Build(in Input) Payload
}

var registry = map[string]Adapter{
	TypeBar:       categoricalAdapter{},
	TypeLine:      categoricalAdapter{},
	TypeArea:      categoricalAdapter{},
	TypePie:       categoricalAdapter{},
	TypeDoughnut:  categoricalAdapter{},
	TypePolarArea: categoricalAdapter{},
	TypeRadar:     radarAdapter{},
	TypeScatter:   coordinateAdapter{withRadius: false},
	TypeBubble:    coordinateAdapter{withRadius: true},
	TypeTable:     tableAdapter{},
	TypeKPI:       kpiAdapter{},
}

// TypeInfo describes a supported widget type.
type TypeInfo struct {
	Type  string `json:"type"`
	Shape Shape  `json:"shape"`
}

// Catalog lists the supported widget types, sorted by name.
func Catalog() []TypeInfo {
	out := make([]TypeInfo, 0, len(registry))
	for t, a := range registry {
		out = append(out, TypeInfo{Type: t, Shape: a.Shape()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// IsSupported reports whether widgetType has a registered adapter.
func IsSupported(widgetType string) bool {
	_, ok := registry[widgetType]
	return ok
}

// Process runs the full pipeline: legacy bucket normalization, global
// filters, then the adapter registered for widgetType. Unknown types are
// rendered as a table. Partial configs degrade to empty payloads.
func Process(widgetType string, src Source, cfg aggregation.WidgetConfig) Payload {
	cfg = aggregation.Normalize(cfg)

	adapter, ok := registry[widgetType]
	if !ok {
		adapter = tableAdapter{}
	}

	in := Input{
		Type: widgetType,
		Source: Source{
			Rows:   aggregation.ApplyFilters(src.Rows, cfg.Filters),
			Fields: src.Fields,
		},
		Config:  cfg,
		Buckets: aggregation.ActiveBuckets(cfg.Buckets),
	}

	p := adapter.Build(in)
	p.Type = widgetType
	if p.Shape == "" {
		p.Shape = adapter.Shape()
	}
	return p
}
