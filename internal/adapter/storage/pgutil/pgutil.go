package pgutil

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
)

type BasePostgresStorage struct {
	DB      storage.DBContext
	tracker *storage.EventTracker
}

func NewBasePostgresStorage(db storage.DBContext) *BasePostgresStorage {
	return &BasePostgresStorage{
		DB:      db,
		tracker: storage.NewEventTracker(),
	}
}

func (s *BasePostgresStorage) CollectEvents() []domain.Event {
	return s.tracker.CollectEvents()
}

func (s *BasePostgresStorage) Close() {
	s.tracker.Clear()
}

func (s *BasePostgresStorage) MarkSeen(key string, src domain.EventSource) {
	s.tracker.MarkSeen(key, src)
}

func ViolatesConstraint(err error, constraintName string) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) &&
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) &&
		pgErr.ConstraintName == constraintName
}

func Peek[K comparable, V any](items map[K]V, defaultValue ...V) V {
	for _, item := range items {
		return item
	}

	if len(defaultValue) != 0 {
		return defaultValue[0]
	} else {
		return *new(V)
	}

}

func PeekOrErr[K comparable, V any](items map[K]V, err, notFoundErr error) (V, error) {

	if err != nil {
		return *new(V), err
	}

	if len(items) == 0 {
		return *new(V), notFoundErr
	}

	return Peek(items), nil
}

// MakeUpdateQuery turns a flat changelog into SET clauses. Pointer fields
// that became nil produce a "delete" change and are written as NULL.
func MakeUpdateQuery(stmt *sqlf.Stmt, updates diff.Changelog) *sqlf.Stmt {

	for _, upd := range updates {
		if len(upd.Path) > 1 {
			panic("cannot process updates in nested structures")
		}

		switch upd.Type {
		case diff.CREATE, diff.UPDATE:
			stmt = stmt.Set(upd.Path[0], upd.To)
		case diff.DELETE:
			stmt = stmt.Set(upd.Path[0], nil)
		default:
			panic("invalid update type " + upd.Type)
		}
	}
	return stmt
}

func AssertUpdated(res sql.Result, err error, notUpdatedError error) error {
	if err != nil {
		return storage.InternalError(err)
	}

	affected, err := res.RowsAffected()

	if err != nil {
		return storage.InternalError(err)
	}

	if affected == 0 {
		return notUpdatedError
	}
	return nil
}

func AssertInserted(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, storage.InternalError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storage.InternalError(fmt.Errorf("rows affected: %w", err))
	}
	return affected > 0, nil
}
