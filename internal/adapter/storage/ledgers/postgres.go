package ledgerstorage

import (
	"context"
	"database/sql"
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage/pgutil"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/ledger"
	"github.com/leporo/sqlf"
	"time"
)

type PostgresStorage struct {
	base *pgutil.BasePostgresStorage
}

func NewPostgresStorage(db storage.DBContext) *PostgresStorage {
	return &PostgresStorage{
		base: pgutil.NewBasePostgresStorage(db),
	}
}

// Create relies on the primary key to resolve two first submissions racing
// for the same user: the loser inserts nothing and reports false.
func (s *PostgresStorage) Create(ctx context.Context, l *ledger.Ledger) (bool, error) {
	created, err := pgutil.AssertInserted(createStmt(l).ExecAndClose(ctx, s.base.DB))
	if err != nil {
		return false, err
	}

	if created {
		s.base.MarkSeen(l.UserID, l)
	}
	return created, nil
}

func (s *PostgresStorage) AppendEntry(ctx context.Context, l *ledger.Ledger, e ledger.Entry) error {
	if _, err := appendStmt(l.UserID, e).ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "weight_entries_user_id_fkey") {
			return ledger.ErrLedgerNotFound
		}
		return storage.InternalError(err)
	}

	s.base.MarkSeen(l.UserID, l)
	return nil
}

func createStmt(l *ledger.Ledger) *sqlf.Stmt {
	return sqlf.PostgreSQL.InsertInto("bmi_ledgers").
		Set("user_id", l.UserID).
		Set("height", l.Height).
		Set("created_at", l.CreatedAt).
		Clause("ON CONFLICT (user_id) DO NOTHING")
}

func appendStmt(userID string, e ledger.Entry) *sqlf.Stmt {
	return sqlf.PostgreSQL.InsertInto("weight_entries").
		Set("entry_id", e.EntryID).
		Set("user_id", userID).
		Set("weight", e.Weight).
		Set("recorded_at", e.Timestamp)
}

// ledgerRow is one row of the ledger/entry LEFT JOIN. Entry columns are nil
// for a ledger without entries.
type ledgerRow struct {
	UserID    string
	Height    float64
	CreatedAt time.Time
	EntryID   *string
	Weight    *float64
	Recorded  *time.Time
}

func selectStmt(dest *ledgerRow) *sqlf.Stmt {
	return sqlf.PostgreSQL.From("bmi_ledgers l").
		LeftJoin("weight_entries e", "e.user_id = l.user_id").
		Select("l.user_id").To(&dest.UserID).
		Select("l.height").To(&dest.Height).
		Select("l.created_at").To(&dest.CreatedAt).
		Select("e.entry_id").To(&dest.EntryID).
		Select("e.weight").To(&dest.Weight).
		Select("e.recorded_at").To(&dest.Recorded)
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) (map[string]*ledger.Ledger, error) {
	var tmp ledgerRow
	q := modify(selectStmt(&tmp)).OrderBy("l.user_id", "e.seq")

	folder := newLedgerFolder()
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		folder.add(tmp)
	})

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storage.InternalError(err)
	}

	result := folder.ledgers()
	for userID, l := range result {
		s.base.MarkSeen(userID, l)
	}
	return result, nil
}

// ledgerFolder regroups joined rows into ledgers. Rows must arrive ordered
// by user and then by entry sequence.
type ledgerFolder struct {
	order  []string
	byUser map[string]*foldedLedger
}

type foldedLedger struct {
	height    float64
	createdAt time.Time
	entries   []ledger.Entry
}

func newLedgerFolder() *ledgerFolder {
	return &ledgerFolder{
		order:  make([]string, 0),
		byUser: make(map[string]*foldedLedger),
	}
}

func (f *ledgerFolder) add(row ledgerRow) {
	acc, ok := f.byUser[row.UserID]
	if !ok {
		acc = &foldedLedger{height: row.Height, createdAt: row.CreatedAt}
		f.byUser[row.UserID] = acc
		f.order = append(f.order, row.UserID)
	}
	if row.EntryID != nil {
		acc.entries = append(acc.entries, ledger.Entry{
			EntryID:   *row.EntryID,
			Weight:    *row.Weight,
			Timestamp: row.Recorded.UTC(),
		})
	}
}

func (f *ledgerFolder) ledgers() map[string]*ledger.Ledger {
	result := make(map[string]*ledger.Ledger, len(f.order))
	for _, userID := range f.order {
		acc := f.byUser[userID]
		result[userID] = ledger.Restore(userID, acc.height, acc.createdAt, acc.entries)
	}
	return result
}

func (s *PostgresStorage) GetByUserID(ctx context.Context, userID string) (*ledger.Ledger, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("l.user_id = ?", userID)
	})
	return pgutil.PeekOrErr(result, err, ledger.ErrLedgerNotFound)
}

func (s *PostgresStorage) List(ctx context.Context) (map[string]*ledger.Ledger, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt
	})
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}
