package storage

import (
	"context"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/ledger"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
)

type UserRepository interface {
	Add(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, userID string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Persist(ctx context.Context, u *user.User) error
	// List enumerates every user ordered by creation time, then id.
	List(ctx context.Context) ([]*user.User, error)
	CollectEvents() []domain.Event
	Close() error
}

type LedgerRepository interface {
	GetByUserID(ctx context.Context, userID string) (*ledger.Ledger, error)
	// Create stores l unless the user already has a ledger, in which case it
	// reports false and leaves the stored one untouched.
	Create(ctx context.Context, l *ledger.Ledger) (bool, error)
	// AppendEntry adds a single entry without rewriting the others, so
	// concurrent appends for one user never overwrite each other.
	AppendEntry(ctx context.Context, l *ledger.Ledger, e ledger.Entry) error
	// List returns every ledger keyed by user id, entries in insertion order.
	List(ctx context.Context) (map[string]*ledger.Ledger, error)
	CollectEvents() []domain.Event
	Close() error
}

// Repositories builds repositories bound to the transaction of one unit of
// work. It is the seam that makes the storage engine swappable.
type Repositories interface {
	Users(db DBContext) UserRepository
	Ledgers(db DBContext) LedgerRepository
}
