package models

import (
	"time"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
)

// Widget represents a user's dashboard widget stored in Firestore. Config is
// persisted in normalized form so legacy single-bucket readers keep working.
type Widget struct {
	WidgetID     string                   `firestore:"widgetId" json:"widgetId"`
	Type         string                   `firestore:"type" json:"type"`
	Title        string                   `firestore:"title" json:"title"`
	DataSourceID string                   `firestore:"dataSourceId" json:"dataSourceId"`
	Position     int                      `firestore:"position" json:"position"`
	Config       aggregation.WidgetConfig `firestore:"config" json:"config"`
	CreatedAt    time.Time                `firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time                `firestore:"updatedAt" json:"updatedAt"`
}
