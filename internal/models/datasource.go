package models

import "time"

// Data source kinds
const (
	DataSourceInline = "inline"
	DataSourceHTTP   = "http"
)

// DataSource describes where a widget's rows come from. Inline sources keep
// their rows in a subcollection; HTTP sources are fetched on demand.
type DataSource struct {
	DataSourceID string   `firestore:"dataSourceId" json:"dataSourceId"`
	Name         string   `firestore:"name" json:"name"`
	Kind         string   `firestore:"kind" json:"kind"`
	Fields       []string `firestore:"fields" json:"fields"`
	RowCount     int      `firestore:"rowCount" json:"rowCount"`
	URL          string   `firestore:"url,omitempty" json:"url,omitempty"`
	RowsPath     string   `firestore:"rowsPath,omitempty" json:"rowsPath,omitempty"`
	// AuthHeaderCipher is the KMS-encrypted Authorization header value.
	AuthHeaderCipher string    `firestore:"authHeaderCipher,omitempty" json:"-"`
	HasAuthHeader    bool      `firestore:"hasAuthHeader" json:"hasAuthHeader"`
	CreatedAt        time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// SourceRow is one stored row of an inline data source; Seq keeps the
// original order.
type SourceRow struct {
	Seq    int            `firestore:"seq"`
	Values map[string]any `firestore:"values"`
}
