package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
	"github.com/GregMSThompson/dashboard-backend/internal/client/httpsource"
	"github.com/GregMSThompson/dashboard-backend/internal/dto"
	"github.com/GregMSThompson/dashboard-backend/internal/errs"
	"github.com/GregMSThompson/dashboard-backend/internal/models"
	"github.com/GregMSThompson/dashboard-backend/pkg/helpers"
)

// --- Fakes ---

type fakeDataSourceStore struct {
	sources   map[string]*models.DataSource
	rows      map[string][]aggregation.Row
	gets      int
	rowReads  int
	deleted   []string
	createErr error
	// onRows runs once after Rows has read its result, standing in for a
	// concurrent writer.
	onRows func()
}

func newFakeDataSourceStore() *fakeDataSourceStore {
	return &fakeDataSourceStore{
		sources: make(map[string]*models.DataSource),
		rows:    make(map[string][]aggregation.Row),
	}
}

func (f *fakeDataSourceStore) Create(_ context.Context, _ string, ds *models.DataSource, rows []aggregation.Row) error {
	if f.createErr != nil {
		return f.createErr
	}
	if ds.Kind == models.DataSourceInline {
		ds.RowCount = len(rows)
	}
	f.sources[ds.DataSourceID] = ds
	f.rows[ds.DataSourceID] = rows
	return nil
}

func (f *fakeDataSourceStore) Get(_ context.Context, _, id string) (*models.DataSource, error) {
	f.gets++
	ds, ok := f.sources[id]
	if !ok {
		return nil, errs.NewNotFoundError("data source not found")
	}
	cp := *ds
	return &cp, nil
}

func (f *fakeDataSourceStore) List(_ context.Context, _ string) ([]*models.DataSource, error) {
	out := make([]*models.DataSource, 0, len(f.sources))
	for _, ds := range f.sources {
		out = append(out, ds)
	}
	return out, nil
}

func (f *fakeDataSourceStore) Rows(_ context.Context, _, id string, _ int) ([]aggregation.Row, error) {
	f.rowReads++
	rows := f.rows[id]
	if hook := f.onRows; hook != nil {
		f.onRows = nil
		hook()
	}
	return rows, nil
}

func (f *fakeDataSourceStore) ReplaceRows(_ context.Context, _, id string, fields []string, rows []aggregation.Row) error {
	f.rows[id] = rows
	f.sources[id].Fields = fields
	f.sources[id].RowCount = len(rows)
	return nil
}

func (f *fakeDataSourceStore) Delete(_ context.Context, _, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.sources, id)
	delete(f.rows, id)
	return nil
}

type fakeWidgetCounter struct {
	counts map[string]int
}

func (f *fakeWidgetCounter) CountByDataSource(_ context.Context, _, id string) (int, error) {
	return f.counts[id], nil
}

type fakeFetcher struct {
	result  httpsource.Result
	err     error
	lastReq httpsource.Request
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, req httpsource.Request) (httpsource.Result, error) {
	f.calls++
	f.lastReq = req
	return f.result, f.err
}

// fakeCipher prefixes instead of encrypting.
type fakeCipher struct{}

func (fakeCipher) KmsEncrypt(_ context.Context, plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (fakeCipher) KmsDecrypt(_ context.Context, ciphertext string) (string, error) {
	if len(ciphertext) < 4 || ciphertext[:4] != "enc:" {
		return "", errs.NewEncryptionError("bad ciphertext", nil)
	}
	return ciphertext[4:], nil
}

type dataSourceFixture struct {
	svc     *dataSourceService
	store   *fakeDataSourceStore
	widgets *fakeWidgetCounter
	fetcher *fakeFetcher
}

func newDataSourceFixture(t *testing.T) dataSourceFixture {
	t.Helper()
	cache, err := NewSnapshotCache(10_000)
	if err != nil {
		t.Fatalf("cache error: %v", err)
	}
	t.Cleanup(cache.Close)

	f := dataSourceFixture{
		store:   newFakeDataSourceStore(),
		widgets: &fakeWidgetCounter{counts: map[string]int{}},
		fetcher: &fakeFetcher{},
	}
	f.svc = NewDataSourceService(f.store, f.widgets, f.fetcher, fakeCipher{}, cache, DataSourceOptions{
		MaxRows:  3,
		CacheTTL: time.Minute,
	})
	return f
}

// --- Create ---

func TestCreateDataSource_Inline(t *testing.T) {
	f := newDataSourceFixture(t)

	ds, err := f.svc.CreateDataSource(helpers.TestCtx(), "uid", dto.CreateDataSourceRequest{
		Name: "Sales",
		Kind: models.DataSourceInline,
		Rows: []aggregation.Row{{"sales": 1, "region": "N"}, {"region": "S", "month": "Jan"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.RowCount != 2 {
		t.Fatalf("expected row count 2, got %d", ds.RowCount)
	}
	if diff := cmp.Diff([]string{"month", "region", "sales"}, ds.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDataSource_HTTPEncryptsAuthHeader(t *testing.T) {
	f := newDataSourceFixture(t)

	ds, err := f.svc.CreateDataSource(helpers.TestCtx(), "uid", dto.CreateDataSourceRequest{
		Name:       "Remote",
		Kind:       models.DataSourceHTTP,
		URL:        "https://example.com/report.json",
		RowsPath:   ".data.items.",
		AuthHeader: "Bearer secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.AuthHeaderCipher != "enc:Bearer secret" || !ds.HasAuthHeader {
		t.Fatalf("expected encrypted header, got %+v", ds)
	}
	if ds.RowsPath != "data.items" {
		t.Fatalf("expected trimmed rows path, got %q", ds.RowsPath)
	}
}

func TestCreateDataSource_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  dto.CreateDataSourceRequest
	}{
		{name: "missing name", req: dto.CreateDataSourceRequest{Kind: models.DataSourceInline, Rows: []aggregation.Row{{"a": 1}}}},
		{name: "unknown kind", req: dto.CreateDataSourceRequest{Name: "x", Kind: "ftp"}},
		{name: "no rows", req: dto.CreateDataSourceRequest{Name: "x", Kind: models.DataSourceInline}},
		{name: "too many rows", req: dto.CreateDataSourceRequest{Name: "x", Kind: models.DataSourceInline, Rows: make([]aggregation.Row, 4)}},
		{name: "relative url", req: dto.CreateDataSourceRequest{Name: "x", Kind: models.DataSourceHTTP, URL: "/data.json"}},
		{name: "bad scheme", req: dto.CreateDataSourceRequest{Name: "x", Kind: models.DataSourceHTTP, URL: "ftp://host/data"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDataSourceFixture(t)
			_, err := f.svc.CreateDataSource(helpers.TestCtx(), "uid", tt.req)
			var ve *errs.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(f.store.sources) != 0 {
				t.Fatal("nothing should be stored")
			}
		})
	}
}

// --- LoadRows ---

func TestLoadRows_CachesInlineSnapshot(t *testing.T) {
	f := newDataSourceFixture(t)
	f.store.sources["s1"] = &models.DataSource{DataSourceID: "s1", Kind: models.DataSourceInline, Fields: []string{"region"}}
	f.store.rows["s1"] = []aggregation.Row{{"region": "N"}}

	for i := 0; i < 3; i++ {
		snap, err := f.svc.LoadRows(helpers.TestCtx(), "uid", "s1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap.Rows) != 1 || snap.Fields[0] != "region" {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	}
	if f.store.rowReads != 1 {
		t.Fatalf("expected a single row read, got %d", f.store.rowReads)
	}
}

func TestLoadRows_HTTPSourceDecryptsHeader(t *testing.T) {
	f := newDataSourceFixture(t)
	f.store.sources["h1"] = &models.DataSource{
		DataSourceID:     "h1",
		Kind:             models.DataSourceHTTP,
		URL:              "https://example.com/rows",
		RowsPath:         "items",
		AuthHeaderCipher: "enc:Bearer t",
	}
	f.fetcher.result = httpsource.Result{
		Rows:   []aggregation.Row{{"b": 1, "a": 2}},
		Fields: []string{"b", "a"},
	}

	snap, err := f.svc.LoadRows(helpers.TestCtx(), "uid", "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := httpsource.Request{URL: "https://example.com/rows", RowsPath: "items", AuthHeader: "Bearer t"}
	if diff := cmp.Diff(want, f.fetcher.lastReq); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "a"}, snap.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRows_FetchErrorIsNotCached(t *testing.T) {
	f := newDataSourceFixture(t)
	f.store.sources["h1"] = &models.DataSource{DataSourceID: "h1", Kind: models.DataSourceHTTP, URL: "https://example.com"}
	f.fetcher.err = errs.NewExternalServiceError("http_source", "down", true, nil)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.LoadRows(helpers.TestCtx(), "uid", "h1"); err == nil {
			t.Fatal("expected error")
		}
	}
	if f.fetcher.calls != 2 {
		t.Fatalf("expected every call to refetch, got %d", f.fetcher.calls)
	}
}

// --- ReplaceRows / Delete ---

func TestReplaceRows_InvalidatesCache(t *testing.T) {
	f := newDataSourceFixture(t)
	f.store.sources["s1"] = &models.DataSource{DataSourceID: "s1", Kind: models.DataSourceInline}
	f.store.rows["s1"] = []aggregation.Row{{"v": 1}}

	if _, err := f.svc.LoadRows(helpers.TestCtx(), "uid", "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ds, err := f.svc.ReplaceRows(helpers.TestCtx(), "uid", "s1", dto.ReplaceRowsRequest{
		Rows: []aggregation.Row{{"v": 2}, {"v": 3}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.RowCount != 2 {
		t.Fatalf("expected row count 2, got %d", ds.RowCount)
	}

	snap, err := f.svc.LoadRows(helpers.TestCtx(), "uid", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Rows) != 2 {
		t.Fatalf("expected fresh snapshot, got %v", snap.Rows)
	}
}

func TestLoadRows_ReplaceDuringLoadIsNotCached(t *testing.T) {
	f := newDataSourceFixture(t)
	f.store.sources["s1"] = &models.DataSource{DataSourceID: "s1", Kind: models.DataSourceInline}
	f.store.rows["s1"] = []aggregation.Row{{"v": 1}}
	f.store.onRows = func() {
		if _, err := f.svc.ReplaceRows(helpers.TestCtx(), "uid", "s1", dto.ReplaceRowsRequest{
			Rows: []aggregation.Row{{"v": 2}, {"v": 3}},
		}); err != nil {
			t.Errorf("replace error: %v", err)
		}
	}

	stale, err := f.svc.LoadRows(helpers.TestCtx(), "uid", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stale.Rows) != 1 {
		t.Fatalf("expected the rows read before the replace, got %v", stale.Rows)
	}

	snap, err := f.svc.LoadRows(helpers.TestCtx(), "uid", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Rows) != 2 {
		t.Fatalf("expected fresh snapshot after replace, got %v", snap.Rows)
	}
	if f.store.rowReads != 2 {
		t.Fatalf("expected stale snapshot to skip the cache, rows read %d times", f.store.rowReads)
	}
}

func TestReplaceRows_RejectsHTTPSource(t *testing.T) {
	f := newDataSourceFixture(t)
	f.store.sources["h1"] = &models.DataSource{DataSourceID: "h1", Kind: models.DataSourceHTTP}

	_, err := f.svc.ReplaceRows(helpers.TestCtx(), "uid", "h1", dto.ReplaceRowsRequest{Rows: []aggregation.Row{{"v": 1}}})
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteDataSource(t *testing.T) {
	f := newDataSourceFixture(t)
	f.store.sources["used"] = &models.DataSource{DataSourceID: "used", Kind: models.DataSourceInline}
	f.store.sources["free"] = &models.DataSource{DataSourceID: "free", Kind: models.DataSourceInline}
	f.widgets.counts["used"] = 2

	err := f.svc.DeleteDataSource(helpers.TestCtx(), "uid", "used")
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := f.svc.DeleteDataSource(helpers.TestCtx(), "uid", "free"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"free"}, f.store.deleted); diff != "" {
		t.Fatalf("deleted mismatch (-want +got):\n%s", diff)
	}

	err = f.svc.DeleteDataSource(helpers.TestCtx(), "uid", "missing")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPreviewRows(t *testing.T) {
	f := newDataSourceFixture(t)
	f.store.sources["s1"] = &models.DataSource{DataSourceID: "s1", Kind: models.DataSourceInline, Fields: []string{"v"}}
	f.store.rows["s1"] = []aggregation.Row{{"v": 1}, {"v": 2}, {"v": 3}}

	resp, err := f.svc.PreviewRows(helpers.TestCtx(), "uid", "s1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 3 || len(resp.Rows) != 2 {
		t.Fatalf("unexpected preview: %+v", resp)
	}
}
