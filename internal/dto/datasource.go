package dto

import "github.com/GregMSThompson/dashboard-backend/internal/aggregation"

type CreateDataSourceRequest struct {
	Name   string            `json:"name"`
	Kind   string            `json:"kind"`
	Fields []string          `json:"fields,omitempty"`
	Rows   []aggregation.Row `json:"rows,omitempty"`
	// HTTP sources only.
	URL        string `json:"url,omitempty"`
	RowsPath   string `json:"rowsPath,omitempty"`
	AuthHeader string `json:"authHeader,omitempty"`
}

type ReplaceRowsRequest struct {
	Fields []string          `json:"fields,omitempty"`
	Rows   []aggregation.Row `json:"rows"`
}

// DataSourceRowsResponse is a page of a source's current snapshot.
type DataSourceRowsResponse struct {
	Fields []string          `json:"fields"`
	Rows   []aggregation.Row `json:"rows"`
	Total  int               `json:"total"`
}
