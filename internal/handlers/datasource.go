package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/dashboard-backend/internal/dto"
	"github.com/GregMSThompson/dashboard-backend/internal/middleware"
	"github.com/GregMSThompson/dashboard-backend/internal/models"
	"github.com/GregMSThompson/dashboard-backend/internal/response"
)

type dataSourceService interface {
	CreateDataSource(ctx context.Context, uid string, req dto.CreateDataSourceRequest) (*models.DataSource, error)
	ListDataSources(ctx context.Context, uid string) ([]*models.DataSource, error)
	GetDataSource(ctx context.Context, uid, dataSourceID string) (*models.DataSource, error)
	ReplaceRows(ctx context.Context, uid, dataSourceID string, req dto.ReplaceRowsRequest) (*models.DataSource, error)
	DeleteDataSource(ctx context.Context, uid, dataSourceID string) error
	PreviewRows(ctx context.Context, uid, dataSourceID string, limit int) (dto.DataSourceRowsResponse, error)
}

type dataSourceHandlers struct {
	ResponseHandler response.ResponseHandler
	DataSourceSvc   dataSourceService
}

func NewDataSourceHandlers(deps *Deps) *dataSourceHandlers {
	return &dataSourceHandlers{
		ResponseHandler: deps.ResponseHandler,
		DataSourceSvc:   deps.DataSourceSvc,
	}
}

func (h *dataSourceHandlers) DataSourceRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListDataSources)
	r.Post("/", h.CreateDataSource)
	r.Get("/{dataSourceId}", h.GetDataSource)
	r.Delete("/{dataSourceId}", h.DeleteDataSource)
	r.Get("/{dataSourceId}/rows", h.PreviewRows)
	r.Put("/{dataSourceId}/rows", h.ReplaceRows)
	return r
}

func (h *dataSourceHandlers) CreateDataSource(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDataSourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	ds, err := h.DataSourceSvc.CreateDataSource(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, ds)
}

func (h *dataSourceHandlers) ListDataSources(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	sources, err := h.DataSourceSvc.ListDataSources(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, sources)
}

func (h *dataSourceHandlers) GetDataSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "dataSourceId")
	uid := middleware.UID(r.Context())
	ds, err := h.DataSourceSvc.GetDataSource(r.Context(), uid, id)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, ds)
}

func (h *dataSourceHandlers) DeleteDataSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "dataSourceId")
	uid := middleware.UID(r.Context())
	if err := h.DataSourceSvc.DeleteDataSource(r.Context(), uid, id); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *dataSourceHandlers) ReplaceRows(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "dataSourceId")
	var req dto.ReplaceRowsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	ds, err := h.DataSourceSvc.ReplaceRows(r.Context(), uid, id, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, ds)
}

// PreviewRows returns the first ?limit= rows of the source (default 100).
func (h *dataSourceHandlers) PreviewRows(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "dataSourceId")
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	uid := middleware.UID(r.Context())
	rows, err := h.DataSourceSvc.PreviewRows(r.Context(), uid, id, limit)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, rows)
}
