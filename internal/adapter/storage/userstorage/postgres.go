package userstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage/pgutil"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"log/slog"
	"time"
)

type PostgresStorage struct {
	base   *pgutil.BasePostgresStorage
	logger *slog.Logger
}

func NewPostgresStorage(db storage.DBContext, logger *slog.Logger) *PostgresStorage {
	return &PostgresStorage{
		base:   pgutil.NewBasePostgresStorage(db),
		logger: logger,
	}
}

func (s *PostgresStorage) Add(ctx context.Context, u *user.User) error {
	if _, err := insertStmt(u).ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "users_email_key") {
			return errors.Join(fmt.Errorf("user exists: %w", err), user.ErrUserEmailDuplicate)
		}
		if pgutil.ViolatesConstraint(err, "users_pkey") {
			return errors.Join(fmt.Errorf("user exists: %w", err), user.ErrUserExists)
		}
		return storage.InternalError(err)
	}

	s.base.MarkSeen(u.UserID, u)
	return nil
}

func insertStmt(u *user.User) *sqlf.Stmt {
	return sqlf.PostgreSQL.InsertInto("users").
		Set("user_id", u.UserID).
		Set("email", u.Email).
		Set("name", u.Name).
		Set("password_hash", u.PasswordHash).
		Set("role", string(u.Role)).
		Set("height", u.Height).
		Set("weight", u.Weight).
		Set("age", u.Age).
		Set("gender", u.Gender).
		Set("goals", u.Goals).
		Set("bench_press", u.BenchPress).
		Set("squat", u.Squat).
		Set("deadlift", u.Deadlift).
		Set("created_at", u.CreatedAt).
		Set("updated_at", u.UpdatedAt)
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) ([]*user.User, error) {
	var tmp userRow

	q := sqlf.PostgreSQL.From("users u").
		Select("u.user_id").To(&tmp.UserID).
		Select("u.email").To(&tmp.Email).
		Select("u.name").To(&tmp.Name).
		Select("u.password_hash").To(&tmp.PasswordHash).
		Select("u.role").To(&tmp.Role).
		Select("u.height").To(&tmp.Height).
		Select("u.weight").To(&tmp.Weight).
		Select("u.age").To(&tmp.Age).
		Select("u.gender").To(&tmp.Gender).
		Select("u.goals").To(&tmp.Goals).
		Select("u.bench_press").To(&tmp.BenchPress).
		Select("u.squat").To(&tmp.Squat).
		Select("u.deadlift").To(&tmp.Deadlift).
		Select("u.created_at").To(&tmp.CreatedAt).
		Select("u.updated_at").To(&tmp.UpdatedAt)

	q = modify(q)

	var users []*user.User
	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		users = append(users, tmp.toDomain())
	})

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storage.InternalError(err)
	}

	for _, u := range users {
		s.base.MarkSeen(u.UserID, u)
	}
	return users, nil
}

func (s *PostgresStorage) getOne(ctx context.Context, where string, args ...any) (*user.User, error) {
	users, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where(where, args...)
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, user.ErrUserNotFound
	}
	return users[0], nil
}

func (s *PostgresStorage) GetByID(ctx context.Context, userID string) (*user.User, error) {
	return s.getOne(ctx, "u.user_id = ?", userID)
}

func (s *PostgresStorage) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getOne(ctx, "u.email = ?", user.NormalizeEmail(email))
}

func (s *PostgresStorage) List(ctx context.Context) ([]*user.User, error) {
	return s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.OrderBy("u.created_at", "u.user_id")
	})
}

// Persist writes only the columns that differ from the stored row.
func (s *PostgresStorage) Persist(ctx context.Context, u *user.User) error {
	dbState, err := s.GetByID(ctx, u.UserID)
	if err != nil {
		return err
	}

	changes, err := diff.Diff(dbState, u)
	if err != nil {
		return storage.InternalError(err)
	}

	s.base.MarkSeen(u.UserID, u)
	if len(changes) == 0 {
		return nil
	}

	q := sqlf.PostgreSQL.Update("users").Where("user_id = ?", u.UserID)
	q = pgutil.MakeUpdateQuery(q, changes)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	if err := pgutil.AssertUpdated(res, err, user.ErrUserNotFound); err != nil {
		if pgutil.ViolatesConstraint(err, "users_email_key") {
			return user.ErrUserEmailDuplicate
		}
		return fmt.Errorf("can't persist user: %w", err)
	}
	return nil
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}

type userRow struct {
	UserID       string
	Email        string
	Name         string
	PasswordHash string
	Role         string
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

func (r *userRow) toDomain() *user.User {
	return &user.User{
		UserID:       r.UserID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Role:         user.Role(r.Role),
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

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
