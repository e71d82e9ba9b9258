// Package sqlxstore is the PostgreSQL core.RecordStore.
package sqlxstore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
)

var errRecordNotFound = errors.New("record not found")

type Store struct {
	db *sqlx.DB
}

var _ core.RecordStore = (*Store)(nil) // interface compliance check

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Select(ctx context.Context, collection string, where core.Filter, ordering ...core.DBOrdering) ([]core.Record, error) {
	cols := where.Columns()
	for _, ord := range ordering {
		cols = append(cols, ord.Field)
	}
	if err := core.CheckColumns(collection, cols...); err != nil {
		return nil, fail("select", collection, err)
	}

	q := buildSelect(collection, where, ordering)
	rows, err := s.db.QueryxContext(ctx, q.String(), q.args...)
	if err != nil {
		return nil, fail("select", collection, err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, fail("select", collection, err)
	}
	return recs, nil
}

func (s *Store) Insert(ctx context.Context, collection string, rec core.Record) (core.Record, error) {
	if err := core.CheckColumns(collection, rec.Columns()...); err != nil {
		return nil, fail("insert", collection, err)
	}
	rec = rec.Clone()
	if rec.String("id") == "" {
		rec["id"] = uuid.New().String()
	}

	q := buildInsert(collection, rec)
	rows, err := s.db.QueryxContext(ctx, q.String(), q.args...)
	if err != nil {
		return nil, fail("insert", collection, err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, fail("insert", collection, err)
	}
	if len(recs) == 0 {
		return nil, fail("insert", collection, errors.New("no row returned"))
	}
	return recs[0], nil
}

func (s *Store) Update(ctx context.Context, collection string, where core.Filter, patch core.Record) (int, error) {
	if err := core.CheckColumns(collection, append(where.Columns(), patch.Columns()...)...); err != nil {
		return 0, fail("update", collection, err)
	}
	n, err := exec(ctx, s.db, buildUpdate(collection, where, patch))
	if err != nil {
		return 0, fail("update", collection, err)
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, collection string, where core.Filter) (int, error) {
	if err := core.CheckColumns(collection, where.Columns()...); err != nil {
		return 0, fail("delete", collection, err)
	}
	n, err := exec(ctx, s.db, buildDelete(collection, where))
	if err != nil {
		return 0, fail("delete", collection, err)
	}
	return n, nil
}

// BatchUpdate applies the patches in a single transaction.
func (s *Store) BatchUpdate(ctx context.Context, collection string, patches []core.KeyedPatch) (err error) {
	for _, p := range patches {
		if err = core.CheckColumns(collection, p.Patch.Columns()...); err != nil {
			return fail("batch update", collection, err)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fail("batch update", collection, errors.Wrap(err, "beginning transaction"))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, p := range patches {
		var n int
		n, err = exec(ctx, tx, buildUpdate(collection, core.Filter{"id": p.ID}, p.Patch))
		if err == nil && n == 0 {
			err = errors.Wrapf(errRecordNotFound, "id %q", p.ID)
		}
		if err != nil {
			return fail("batch update", collection, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fail("batch update", collection, errors.Wrap(err, "committing transaction"))
	}
	return nil
}

func exec(ctx context.Context, db sqlx.ExecerContext, q *query) (int, error) {
	res, err := db.ExecContext(ctx, q.String(), q.args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting affected rows")
	}
	return int(n), nil
}

func scanRecords(rows *sqlx.Rows) ([]core.Record, error) {
	defer func() { _ = rows.Close() }()

	recs := make([]core.Record, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}
		rec := make(core.Record, len(row))
		for col, val := range row {
			if b, ok := val.([]byte); ok { // jsonb
				val = string(b)
			}
			rec[col] = val
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return recs, nil
}

// serverGone lists the postgres codes raised when the server is going away.
// query_canceled (57014) shares their class but only means a request was cancelled.
var serverGone = map[pq.ErrorCode]bool{
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
}

// fail wraps err with its operation. A server going away becomes a shutdown error.
func fail(op, collection string, err error) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && serverGone[pqErr.Code] {
		err = core.NewShutdownError("database is shutting down", err)
	}
	return core.NewPersistenceError(op, collection, err)
}
