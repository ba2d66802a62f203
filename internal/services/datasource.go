package services

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
	"github.com/GregMSThompson/dashboard-backend/internal/client/httpsource"
	"github.com/GregMSThompson/dashboard-backend/internal/dto"
	"github.com/GregMSThompson/dashboard-backend/internal/errs"
	"github.com/GregMSThompson/dashboard-backend/internal/models"
	"github.com/GregMSThompson/dashboard-backend/pkg/logger"
)

const (
	defaultPreviewRows = 100
	maxPreviewRows     = 1000
)

type dataSourceStore interface {
	Create(ctx context.Context, uid string, ds *models.DataSource, rows []aggregation.Row) error
	Get(ctx context.Context, uid, dataSourceID string) (*models.DataSource, error)
	List(ctx context.Context, uid string) ([]*models.DataSource, error)
	Rows(ctx context.Context, uid, dataSourceID string, limit int) ([]aggregation.Row, error)
	ReplaceRows(ctx context.Context, uid, dataSourceID string, fields []string, rows []aggregation.Row) error
	Delete(ctx context.Context, uid, dataSourceID string) error
}

// widgetCounter reports widgets that still render from a source.
type widgetCounter interface {
	CountByDataSource(ctx context.Context, uid, dataSourceID string) (int, error)
}

type sourceFetcher interface {
	Fetch(ctx context.Context, req httpsource.Request) (httpsource.Result, error)
}

type secretCipher interface {
	KmsEncrypt(ctx context.Context, plaintext string) (string, error)
	KmsDecrypt(ctx context.Context, ciphertext string) (string, error)
}

// Snapshot is the row set a widget is rendered from.
type Snapshot struct {
	Rows   []aggregation.Row
	Fields []string
}

type DataSourceOptions struct {
	MaxRows  int
	CacheTTL time.Duration
}

type dataSourceService struct {
	store   dataSourceStore
	widgets widgetCounter
	fetcher sourceFetcher
	cipher  secretCipher
	cache   *ristretto.Cache
	opts    DataSourceOptions

	// gens counts invalidations per cache key; a load only fills the cache
	// when no invalidation happened while it was reading.
	mu   sync.Mutex
	gens map[string]uint64
}

func NewDataSourceService(store dataSourceStore, widgets widgetCounter, fetcher sourceFetcher, cipher secretCipher, cache *ristretto.Cache, opts DataSourceOptions) *dataSourceService {
	return &dataSourceService{
		store:   store,
		widgets: widgets,
		fetcher: fetcher,
		cipher:  cipher,
		cache:   cache,
		opts:    opts,
		gens:    make(map[string]uint64),
	}
}

func (s *dataSourceService) CreateDataSource(ctx context.Context, uid string, req dto.CreateDataSourceRequest) (*models.DataSource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.NewValidationError("name is required")
	}

	ds := &models.DataSource{
		DataSourceID: uuid.New().String(),
		Name:         name,
		Kind:         req.Kind,
		Fields:       req.Fields,
	}

	var rows []aggregation.Row
	switch req.Kind {
	case models.DataSourceInline:
		if len(req.Rows) == 0 {
			return nil, errs.NewValidationError("rows are required for inline data sources")
		}
		if err := s.checkRowLimit(len(req.Rows)); err != nil {
			return nil, err
		}
		rows = req.Rows
		if len(ds.Fields) == 0 {
			ds.Fields = sortedKeys(rows)
		}

	case models.DataSourceHTTP:
		if err := validateSourceURL(req.URL); err != nil {
			return nil, err
		}
		ds.URL = req.URL
		ds.RowsPath = strings.Trim(req.RowsPath, ".")
		if req.AuthHeader != "" {
			cipher, err := s.cipher.KmsEncrypt(ctx, req.AuthHeader)
			if err != nil {
				return nil, err
			}
			ds.AuthHeaderCipher = cipher
			ds.HasAuthHeader = true
		}

	default:
		return nil, errs.NewValidationError(fmt.Sprintf("kind must be %q or %q", models.DataSourceInline, models.DataSourceHTTP))
	}

	if err := s.store.Create(ctx, uid, ds, rows); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("data source created", "data_source_id", ds.DataSourceID, "kind", ds.Kind, "rows", ds.RowCount)
	return ds, nil
}

func (s *dataSourceService) ListDataSources(ctx context.Context, uid string) ([]*models.DataSource, error) {
	return s.store.List(ctx, uid)
}

func (s *dataSourceService) GetDataSource(ctx context.Context, uid, dataSourceID string) (*models.DataSource, error) {
	return s.store.Get(ctx, uid, dataSourceID)
}

func (s *dataSourceService) ReplaceRows(ctx context.Context, uid, dataSourceID string, req dto.ReplaceRowsRequest) (*models.DataSource, error) {
	ds, err := s.store.Get(ctx, uid, dataSourceID)
	if err != nil {
		return nil, err
	}
	if ds.Kind != models.DataSourceInline {
		return nil, errs.NewValidationError("rows can only be replaced on inline data sources")
	}
	if err := s.checkRowLimit(len(req.Rows)); err != nil {
		return nil, err
	}

	fields := req.Fields
	if len(fields) == 0 {
		fields = sortedKeys(req.Rows)
	}
	if err := s.store.ReplaceRows(ctx, uid, dataSourceID, fields, req.Rows); err != nil {
		return nil, err
	}
	s.invalidate(uid, dataSourceID)

	ds.Fields = fields
	ds.RowCount = len(req.Rows)
	return ds, nil
}

// DeleteDataSource refuses to remove a source that widgets still use.
func (s *dataSourceService) DeleteDataSource(ctx context.Context, uid, dataSourceID string) error {
	if _, err := s.store.Get(ctx, uid, dataSourceID); err != nil {
		return err
	}
	n, err := s.widgets.CountByDataSource(ctx, uid, dataSourceID)
	if err != nil {
		return err
	}
	if n > 0 {
		return errs.NewValidationError(fmt.Sprintf("data source is used by %d widget(s)", n))
	}
	if err := s.store.Delete(ctx, uid, dataSourceID); err != nil {
		return err
	}
	s.invalidate(uid, dataSourceID)
	return nil
}

// PreviewRows returns the first limit rows of the current snapshot.
func (s *dataSourceService) PreviewRows(ctx context.Context, uid, dataSourceID string, limit int) (dto.DataSourceRowsResponse, error) {
	if limit <= 0 {
		limit = defaultPreviewRows
	}
	limit = min(limit, maxPreviewRows)

	snap, err := s.LoadRows(ctx, uid, dataSourceID)
	if err != nil {
		return dto.DataSourceRowsResponse{}, err
	}
	rows := snap.Rows
	if len(rows) > limit {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []aggregation.Row{}
	}
	return dto.DataSourceRowsResponse{Fields: snap.Fields, Rows: rows, Total: len(snap.Rows)}, nil
}

// LoadRows returns the source's row snapshot, from cache when fresh.
func (s *dataSourceService) LoadRows(ctx context.Context, uid, dataSourceID string) (Snapshot, error) {
	log := logger.FromContext(ctx)
	key := cacheKey(uid, dataSourceID)
	if v, ok := s.cache.Get(key); ok {
		if snap, ok := v.(Snapshot); ok {
			log.Debug("row snapshot cache hit", "data_source_id", dataSourceID)
			return snap, nil
		}
	}

	gen := s.generation(key)
	ds, err := s.store.Get(ctx, uid, dataSourceID)
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	switch ds.Kind {
	case models.DataSourceHTTP:
		snap, err = s.fetch(ctx, ds)
	default:
		snap, err = s.readStored(ctx, uid, ds)
	}
	if err != nil {
		return Snapshot{}, err
	}

	if !s.cacheSnapshot(key, gen, snap) {
		log.Debug("row snapshot changed during load, not cached", "data_source_id", dataSourceID)
	}
	log.Debug("row snapshot loaded", "data_source_id", dataSourceID, "rows", len(snap.Rows))
	return snap, nil
}

func (s *dataSourceService) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key]
}

// cacheSnapshot stores snap unless key was invalidated after gen was read.
func (s *dataSourceService) cacheSnapshot(key string, gen uint64, snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[key] != gen {
		return false
	}
	s.cache.SetWithTTL(key, snap, int64(len(snap.Rows))+1, s.opts.CacheTTL)
	s.cache.Wait()
	return true
}

func (s *dataSourceService) readStored(ctx context.Context, uid string, ds *models.DataSource) (Snapshot, error) {
	rows, err := s.store.Rows(ctx, uid, ds.DataSourceID, 0)
	if err != nil {
		return Snapshot{}, err
	}
	fields := ds.Fields
	if len(fields) == 0 {
		fields = sortedKeys(rows)
	}
	return Snapshot{Rows: rows, Fields: fields}, nil
}

func (s *dataSourceService) fetch(ctx context.Context, ds *models.DataSource) (Snapshot, error) {
	req := httpsource.Request{URL: ds.URL, RowsPath: ds.RowsPath}
	if ds.AuthHeaderCipher != "" {
		header, err := s.cipher.KmsDecrypt(ctx, ds.AuthHeaderCipher)
		if err != nil {
			return Snapshot{}, err
		}
		req.AuthHeader = header
	}

	res, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		logger.FromContext(ctx).Warn("http data source fetch failed", "data_source_id", ds.DataSourceID, "error", err)
		return Snapshot{}, err
	}
	fields := ds.Fields
	if len(fields) == 0 {
		fields = res.Fields
	}
	return Snapshot{Rows: res.Rows, Fields: fields}, nil
}

func (s *dataSourceService) invalidate(uid, dataSourceID string) {
	key := cacheKey(uid, dataSourceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[key]++
	s.cache.Del(key)
}

func (s *dataSourceService) checkRowLimit(n int) error {
	if s.opts.MaxRows > 0 && n > s.opts.MaxRows {
		return errs.NewValidationError(fmt.Sprintf("too many rows: %d (limit %d)", n, s.opts.MaxRows))
	}
	return nil
}

func cacheKey(uid, dataSourceID string) string {
	return uid + "/" + dataSourceID
}

func validateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errs.NewValidationError("url must be an absolute http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errs.NewValidationError("url must be an absolute http(s) URL")
	}
	return nil
}

// sortedKeys is the union of row keys in lexical order.
func sortedKeys(rows []aggregation.Row) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
