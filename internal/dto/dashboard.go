package dto

import (
	"time"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
	"github.com/GregMSThompson/dashboard-backend/internal/widgetdata"
)

// --- Request types ---

type CreateWidgetRequest struct {
	Type         string                   `json:"type"`
	Title        string                   `json:"title"`
	DataSourceID string                   `json:"dataSourceId"`
	Config       aggregation.WidgetConfig `json:"config"`
}

type UpdateWidgetConfigRequest struct {
	Title  *string                  `json:"title,omitempty"`
	Config aggregation.WidgetConfig `json:"config"`
}

type ReorderWidgetItem struct {
	WidgetID string `json:"widgetId"`
	Position int    `json:"position"`
}

type ReorderWidgetsRequest struct {
	WidgetOrder []ReorderWidgetItem `json:"widgetOrder"`
}

// PreviewWidgetRequest renders an unsaved configuration against a data source.
type PreviewWidgetRequest struct {
	Type         string                   `json:"type"`
	DataSourceID string                   `json:"dataSourceId"`
	Config       aggregation.WidgetConfig `json:"config"`
}

// --- Response types ---

type WidgetDataResponse struct {
	WidgetID    string             `json:"widgetId,omitempty"`
	Data        widgetdata.Payload `json:"data"`
	LastUpdated time.Time          `json:"lastUpdated"`
}
