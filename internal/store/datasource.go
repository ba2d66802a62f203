package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/dashboard-backend/internal/aggregation"
	"github.com/GregMSThompson/dashboard-backend/internal/errs"
	"github.com/GregMSThompson/dashboard-backend/internal/models"
	"github.com/GregMSThompson/dashboard-backend/pkg/logger"
)

type dataSourceStore struct {
	client *firestore.Client
}

func NewDataSourceStore(client *firestore.Client) *dataSourceStore {
	return &dataSourceStore{client: client}
}

func (s *dataSourceStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("data_sources")
}

func (s *dataSourceStore) rows(uid, dataSourceID string) *firestore.CollectionRef {
	return s.collection(uid).Doc(dataSourceID).Collection("rows")
}

// rowDocID keeps row documents sorted by id as well as by seq.
func rowDocID(seq int) string {
	return fmt.Sprintf("%08d", seq)
}

// Create stores the source document followed by its rows. Rows are ignored
// for sources that are not inline.
func (s *dataSourceStore) Create(ctx context.Context, uid string, ds *models.DataSource, rows []aggregation.Row) error {
	now := time.Now()
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = now
	}
	ds.UpdatedAt = now
	if ds.Kind == models.DataSourceInline {
		ds.RowCount = len(rows)
	}

	if _, err := s.collection(uid).Doc(ds.DataSourceID).Create(ctx, ds); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("data source already exists")
		}
		return errs.NewDatabaseError("create", "failed to create data source", err)
	}
	if ds.Kind != models.DataSourceInline {
		return nil
	}
	if err := s.writeRows(ctx, uid, ds.DataSourceID, rows); err != nil {
		s.rollbackCreate(ctx, uid, ds.DataSourceID)
		return err
	}
	return nil
}

// rollbackCreate removes a source whose rows failed to land, so a partial
// snapshot is never listed. Failures are logged only.
func (s *dataSourceStore) rollbackCreate(ctx context.Context, uid, dataSourceID string) {
	log := logger.FromContext(ctx)
	if err := s.Delete(ctx, uid, dataSourceID); err != nil {
		log.Error("failed to roll back data source create", "data_source_id", dataSourceID, "error", err)
		return
	}
	log.Warn("data source create rolled back", "data_source_id", dataSourceID)
}

func (s *dataSourceStore) Get(ctx context.Context, uid, dataSourceID string) (*models.DataSource, error) {
	doc, err := s.collection(uid).Doc(dataSourceID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("data source not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get data source", err)
	}
	var ds models.DataSource
	if err := doc.DataTo(&ds); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse data source", err)
	}
	return &ds, nil
}

func (s *dataSourceStore) List(ctx context.Context, uid string) ([]*models.DataSource, error) {
	docs, err := s.collection(uid).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list data sources", err)
	}
	out := make([]*models.DataSource, 0, len(docs))
	for _, d := range docs {
		var ds models.DataSource
		if err := d.DataTo(&ds); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse data source", err)
		}
		out = append(out, &ds)
	}
	return out, nil
}

// Rows returns the stored rows in their original order. limit <= 0 reads all.
func (s *dataSourceStore) Rows(ctx context.Context, uid, dataSourceID string, limit int) ([]aggregation.Row, error) {
	query := s.rows(uid, dataSourceID).OrderBy("seq", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []aggregation.Row
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list data source rows", err)
		}
		var row models.SourceRow
		if err := doc.DataTo(&row); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse data source row", err)
		}
		if row.Values == nil {
			row.Values = map[string]any{}
		}
		out = append(out, aggregation.Row(row.Values))
	}
	return out, nil
}

// ReplaceRows overwrites the snapshot of an inline source and updates its
// field list and row count.
func (s *dataSourceStore) ReplaceRows(ctx context.Context, uid, dataSourceID string, fields []string, rows []aggregation.Row) error {
	if err := s.writeRows(ctx, uid, dataSourceID, rows); err != nil {
		return err
	}
	if err := s.deleteRows(ctx, uid, dataSourceID, len(rows)); err != nil {
		return err
	}
	_, err := s.collection(uid).Doc(dataSourceID).Update(ctx, []firestore.Update{
		{Path: "fields", Value: fields},
		{Path: "rowCount", Value: len(rows)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError("data source not found")
		}
		return errs.NewDatabaseError("update", "failed to update data source", err)
	}
	return nil
}

// Delete removes the rows first so a failure never leaves orphaned rows
// behind a missing source document.
func (s *dataSourceStore) Delete(ctx context.Context, uid, dataSourceID string) error {
	if err := s.deleteRows(ctx, uid, dataSourceID, 0); err != nil {
		return err
	}
	if _, err := s.collection(uid).Doc(dataSourceID).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete data source", err)
	}
	return nil
}

func (s *dataSourceStore) writeRows(ctx context.Context, uid, dataSourceID string, rows []aggregation.Row) error {
	if len(rows) == 0 {
		return nil
	}
	coll := s.rows(uid, dataSourceID)
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(rows))
	for i, row := range rows {
		job, err := bw.Set(coll.Doc(rowDocID(i)), models.SourceRow{Seq: i, Values: row})
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("create", "failed to schedule row write", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	return awaitJobs(ctx, jobs, "create", "failed to write data source rows")
}

// deleteRows removes every row with seq >= from.
func (s *dataSourceStore) deleteRows(ctx context.Context, uid, dataSourceID string, from int) error {
	iter := s.rows(uid, dataSourceID).Where("seq", ">=", from).Select().Documents(ctx)
	defer iter.Stop()

	bw := s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("read", "failed to list rows for deletion", err)
		}
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("delete", "failed to schedule row delete", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	return awaitJobs(ctx, jobs, "delete", "failed to delete data source rows")
}

func awaitJobs(ctx context.Context, jobs []*firestore.BulkWriterJob, op, msg string) error {
	log := logger.FromContext(ctx)
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			log.Error(msg, "job", i, "error", err)
			return errs.NewDatabaseError(op, msg, err)
		}
	}
	return nil
}
