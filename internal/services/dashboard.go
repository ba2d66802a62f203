package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
	"github.com/GregMSThompson/dashboard-backend/internal/dto"
	"github.com/GregMSThompson/dashboard-backend/internal/errs"
	"github.com/GregMSThompson/dashboard-backend/internal/models"
	"github.com/GregMSThompson/dashboard-backend/internal/widgetdata"
	"github.com/GregMSThompson/dashboard-backend/pkg/logger"
)

// dashboardStore is the Firestore storage interface for widgets.
type dashboardStore interface {
	Create(ctx context.Context, uid string, w *models.Widget) error
	Get(ctx context.Context, uid, widgetID string) (*models.Widget, error)
	List(ctx context.Context, uid string) ([]*models.Widget, error)
	Update(ctx context.Context, uid string, w *models.Widget) error
	Delete(ctx context.Context, uid, widgetID string) error
	Count(ctx context.Context, uid string) (int, error)
	BulkUpdatePositions(ctx context.Context, uid string, positions map[string]int) error
}

// rowSource resolves the data source a widget renders from.
type rowSource interface {
	GetDataSource(ctx context.Context, uid, dataSourceID string) (*models.DataSource, error)
	LoadRows(ctx context.Context, uid, dataSourceID string) (Snapshot, error)
}

type dashboardService struct {
	store   dashboardStore
	sources rowSource
	now     func() time.Time
}

func NewDashboardService(store dashboardStore, sources rowSource) *dashboardService {
	return &dashboardService{store: store, sources: sources, now: time.Now}
}

// --- Public service methods ---

func (s *dashboardService) GetDashboard(ctx context.Context, uid string) ([]*models.Widget, error) {
	widgets, err := s.store.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	for _, w := range widgets {
		w.Config = aggregation.Normalize(w.Config)
	}
	return widgets, nil
}

func (s *dashboardService) AddWidget(ctx context.Context, uid string, req dto.CreateWidgetRequest) (*models.Widget, error) {
	if err := validateWidgetType(req.Type); err != nil {
		return nil, err
	}
	if err := s.checkDataSource(ctx, uid, req.DataSourceID); err != nil {
		return nil, err
	}
	count, err := s.store.Count(ctx, uid)
	if err != nil {
		return nil, err
	}
	w := &models.Widget{
		WidgetID:     uuid.New().String(),
		Type:         req.Type,
		Title:        strings.TrimSpace(req.Title),
		DataSourceID: req.DataSourceID,
		Position:     count + 1,
		Config:       aggregation.Normalize(req.Config),
	}
	if err := s.store.Create(ctx, uid, w); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("widget added", "widget_id", w.WidgetID, "type", w.Type)
	return w, nil
}

// UpdateWidgetConfig replaces the widget's config and, when given, its title.
// Incomplete configs are stored as is and render as empty payloads.
func (s *dashboardService) UpdateWidgetConfig(ctx context.Context, uid, widgetID string, req dto.UpdateWidgetConfigRequest) (*models.Widget, error) {
	w, err := s.store.Get(ctx, uid, widgetID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		w.Title = strings.TrimSpace(*req.Title)
	}
	w.Config = aggregation.Normalize(req.Config)
	if err := s.store.Update(ctx, uid, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *dashboardService) ReorderWidgets(ctx context.Context, uid string, req dto.ReorderWidgetsRequest) error {
	if len(req.WidgetOrder) == 0 {
		return errs.NewValidationError("widgetOrder must not be empty")
	}
	positions := make(map[string]int, len(req.WidgetOrder))
	for _, item := range req.WidgetOrder {
		if item.WidgetID == "" {
			return errs.NewValidationError("widgetOrder entries require a widgetId")
		}
		if item.Position < 1 {
			return errs.NewValidationError(fmt.Sprintf("position for widget %s must be at least 1", item.WidgetID))
		}
		if _, dup := positions[item.WidgetID]; dup {
			return errs.NewValidationError("duplicate widgetId in widgetOrder: " + item.WidgetID)
		}
		positions[item.WidgetID] = item.Position
	}
	return s.store.BulkUpdatePositions(ctx, uid, positions)
}

func (s *dashboardService) DeleteWidget(ctx context.Context, uid, widgetID string) error {
	return s.store.Delete(ctx, uid, widgetID)
}

func (s *dashboardService) GetWidgetData(ctx context.Context, uid, widgetID string) (dto.WidgetDataResponse, error) {
	w, err := s.store.Get(ctx, uid, widgetID)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	payload, err := s.render(ctx, uid, w.Type, w.DataSourceID, w.Config)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	return dto.WidgetDataResponse{
		WidgetID:    widgetID,
		Data:        payload,
		LastUpdated: s.now(),
	}, nil
}

// PreviewWidgetData renders an unsaved configuration.
func (s *dashboardService) PreviewWidgetData(ctx context.Context, uid string, req dto.PreviewWidgetRequest) (dto.WidgetDataResponse, error) {
	if err := validateWidgetType(req.Type); err != nil {
		return dto.WidgetDataResponse{}, err
	}
	if req.DataSourceID == "" {
		return dto.WidgetDataResponse{}, errs.NewValidationError("dataSourceId is required")
	}
	payload, err := s.render(ctx, uid, req.Type, req.DataSourceID, req.Config)
	if err != nil {
		return dto.WidgetDataResponse{}, err
	}
	return dto.WidgetDataResponse{Data: payload, LastUpdated: s.now()}, nil
}

func (s *dashboardService) WidgetTypes() []widgetdata.TypeInfo {
	return widgetdata.Catalog()
}

func (s *dashboardService) render(ctx context.Context, uid, widgetType, dataSourceID string, cfg aggregation.WidgetConfig) (widgetdata.Payload, error) {
	snap, err := s.sources.LoadRows(ctx, uid, dataSourceID)
	if err != nil {
		return widgetdata.Payload{}, err
	}
	payload := widgetdata.Process(widgetType, widgetdata.Source{Rows: snap.Rows, Fields: snap.Fields}, cfg)
	if logger.IsDebugEnabled(ctx) {
		logger.FromContext(ctx).Debug("widget rendered",
			"type", widgetType,
			"shape", payload.Shape,
			"rows", len(snap.Rows),
			"empty", payload.Empty,
		)
	}
	return payload, nil
}

func (s *dashboardService) checkDataSource(ctx context.Context, uid, dataSourceID string) error {
	if dataSourceID == "" {
		return errs.NewValidationError("dataSourceId is required")
	}
	_, err := s.sources.GetDataSource(ctx, uid, dataSourceID)
	return err
}

// --- Validation ---

func validateWidgetType(t string) error {
	if widgetdata.IsSupported(t) {
		return nil
	}
	return errs.NewValidationError("unknown widget type: " + t)
}
