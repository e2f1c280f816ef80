// Package memory implements the repositories in process memory for
// development and tests.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/ledger"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/samber/lo"
	"sync"
	"time"
)

var ErrUnsupported = errors.New("memory storage does not run SQL")

// Store holds every record. Repositories handed out by Users and Ledgers
// share it and serialise on mu.
type Store struct {
	mu      sync.Mutex
	users   map[string]userRecord
	order   []string
	ledgers map[string]*ledgerRecord
}

func New() *Store {
	return &Store{
		users:   make(map[string]userRecord),
		ledgers: make(map[string]*ledgerRecord),
	}
}

var _ storage.Repositories = (*Store)(nil)
var _ storage.TxBeginner = (*DB)(nil)

func (s *Store) Users(storage.DBContext) storage.UserRepository {
	return &UserStorage{store: s, tracker: storage.NewEventTracker()}
}

func (s *Store) Ledgers(storage.DBContext) storage.LedgerRepository {
	return &LedgerStorage{store: s, tracker: storage.NewEventTracker()}
}

type userRecord struct {
	UserID       string
	Email        string
	Name         string
	PasswordHash string
	Role         user.Role
	Height       *float64
	Weight       *float64
	Age          *int
	Gender       string
	Goals        string
	BenchPress   *float64
	Squat        *float64
	Deadlift     *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func recordFromUser(u *user.User) userRecord {
	return userRecord{
		UserID:       u.UserID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Height:       copyPtr(u.Height),
		Weight:       copyPtr(u.Weight),
		Age:          copyPtr(u.Age),
		Gender:       u.Gender,
		Goals:        u.Goals,
		BenchPress:   copyPtr(u.BenchPress),
		Squat:        copyPtr(u.Squat),
		Deadlift:     copyPtr(u.Deadlift),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r userRecord) toDomain() *user.User {
	return &user.User{
		UserID:       r.UserID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		Height:       copyPtr(r.Height),
		Weight:       copyPtr(r.Weight),
		Age:          copyPtr(r.Age),
		Gender:       r.Gender,
		Goals:        r.Goals,
		BenchPress:   copyPtr(r.BenchPress),
		Squat:        copyPtr(r.Squat),
		Deadlift:     copyPtr(r.Deadlift),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type ledgerRecord struct {
	height    float64
	createdAt time.Time
	entries   []ledger.Entry
}

func (r *ledgerRecord) toDomain(userID string) *ledger.Ledger {
	return ledger.Restore(userID, r.height, r.createdAt, r.entries)
}

// --- UserRepository ---

type UserStorage struct {
	store   *Store
	tracker *storage.EventTracker
}

func (s *UserStorage) Add(_ context.Context, u *user.User) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.users[u.UserID]; ok {
		return user.ErrUserExists
	}
	for _, r := range s.store.users {
		if r.Email == u.Email {
			return user.ErrUserEmailDuplicate
		}
	}

	s.store.users[u.UserID] = recordFromUser(u)
	s.store.order = append(s.store.order, u.UserID)
	s.tracker.MarkSeen(u.UserID, u)
	return nil
}

func (s *UserStorage) GetByID(_ context.Context, userID string) (*user.User, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	r, ok := s.store.users[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	u := r.toDomain()
	s.tracker.MarkSeen(u.UserID, u)
	return u, nil
}

func (s *UserStorage) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	email = user.NormalizeEmail(email)
	for _, r := range s.store.users {
		if r.Email == email {
			u := r.toDomain()
			s.tracker.MarkSeen(u.UserID, u)
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (s *UserStorage) Persist(_ context.Context, u *user.User) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.users[u.UserID]; !ok {
		return user.ErrUserNotFound
	}
	for id, r := range s.store.users {
		if id != u.UserID && r.Email == u.Email {
			return user.ErrUserEmailDuplicate
		}
	}
	s.store.users[u.UserID] = recordFromUser(u)
	s.tracker.MarkSeen(u.UserID, u)
	return nil
}

// List returns users in insertion order, which matches creation order.
func (s *UserStorage) List(_ context.Context) ([]*user.User, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	return lo.Map(s.store.order, func(id string, _ int) *user.User {
		return s.store.users[id].toDomain()
	}), nil
}

func (s *UserStorage) CollectEvents() []domain.Event {
	return s.tracker.CollectEvents()
}

func (s *UserStorage) Close() error {
	s.tracker.Clear()
	return nil
}

// --- LedgerRepository ---

type LedgerStorage struct {
	store   *Store
	tracker *storage.EventTracker
}

func (s *LedgerStorage) GetByUserID(_ context.Context, userID string) (*ledger.Ledger, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	r, ok := s.store.ledgers[userID]
	if !ok {
		return nil, ledger.ErrLedgerNotFound
	}
	l := r.toDomain(userID)
	s.tracker.MarkSeen(userID, l)
	return l, nil
}

func (s *LedgerStorage) Create(_ context.Context, l *ledger.Ledger) (bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.ledgers[l.UserID]; ok {
		return false, nil
	}
	s.store.ledgers[l.UserID] = &ledgerRecord{
		height:    l.Height,
		createdAt: l.CreatedAt,
		entries:   l.Entries(),
	}
	s.tracker.MarkSeen(l.UserID, l)
	return true, nil
}

func (s *LedgerStorage) AppendEntry(_ context.Context, l *ledger.Ledger, e ledger.Entry) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	r, ok := s.store.ledgers[l.UserID]
	if !ok {
		return ledger.ErrLedgerNotFound
	}
	r.entries = append(r.entries, e)
	s.tracker.MarkSeen(l.UserID, l)
	return nil
}

func (s *LedgerStorage) List(_ context.Context) (map[string]*ledger.Ledger, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	result := make(map[string]*ledger.Ledger, len(s.store.ledgers))
	for userID, r := range s.store.ledgers {
		result[userID] = r.toDomain(userID)
	}
	return result, nil
}

func (s *LedgerStorage) CollectEvents() []domain.Event {
	return s.tracker.CollectEvents()
}

func (s *LedgerStorage) Close() error {
	s.tracker.Clear()
	return nil
}

// --- transactions ---

// DB stands in for a database handle. Its transactions commit nothing
// because every repository call is applied immediately.
type DB struct{}

func (DB) Begin(context.Context) (storage.DBContext, error) {
	return DB{}, nil
}

func (DB) Commit() error {
	return nil
}

func (DB) Rollback() error {
	return nil
}

func (DB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, ErrUnsupported
}

func (DB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, ErrUnsupported
}

func (DB) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
