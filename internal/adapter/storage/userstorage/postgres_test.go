package userstorage

import (
	"context"
	"database/sql"
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"strings"
	"testing"
)

type fakeDB struct {
	ExecFunc func(query string, args ...any) (sql.Result, error)
	queries  []string
}

func (f *fakeDB) Begin(context.Context) (storage.DBContext, error) { return f, nil }
func (f *fakeDB) Commit() error                                    { return nil }
func (f *fakeDB) Rollback() error                                  { return nil }

func (f *fakeDB) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	return f.ExecFunc(query, args...)
}

func (f *fakeDB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeDB) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

type affectedRows int64

func (r affectedRows) LastInsertId() (int64, error) { return 0, errors.New("not supported") }
func (r affectedRows) RowsAffected() (int64, error) { return int64(r), nil }

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hash:" + password, nil }
func (plainHasher) Compare(string, string) error         { return nil }

func newUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser("u1", "Ann", "ann@example.com", "secret-password", plainHasher{})
	require.NoError(t, err)
	return u
}

func newStorage(db storage.DBContext) *PostgresStorage {
	return NewPostgresStorage(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInsertStmt(t *testing.T) {
	u := newUser(t)
	h := 180.0
	bench := 90.0
	u.Height = &h
	u.BenchPress = &bench

	q := insertStmt(u)
	defer q.Close()

	query := q.String()
	assert.True(t, strings.HasPrefix(query, "INSERT INTO users ( user_id, email, name, password_hash, role, height, weight, age, gender, goals, bench_press, squat, deadlift, created_at, updated_at ) VALUES ( $1,"), query)
	assert.Contains(t, query, "$15 )")

	args := q.Args()
	require.Len(t, args, 15)
	assert.Equal(t, "u1", args[0])
	assert.Equal(t, "ann@example.com", args[1])
	assert.Equal(t, "USER", args[4])
	assert.Equal(t, &h, args[5])
	assert.Equal(t, &bench, args[10])
	assert.Nil(t, args[11])
}

func TestPostgresStorage_Add(t *testing.T) {
	ctx := context.Background()

	uniqueViolation := func(constraint string) func(string, ...any) (sql.Result, error) {
		return func(string, ...any) (sql.Result, error) {
			return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: constraint}
		}
	}

	t.Run("inserted", func(t *testing.T) {
		db := &fakeDB{ExecFunc: func(string, ...any) (sql.Result, error) {
			return affectedRows(1), nil
		}}
		s := newStorage(db)

		require.NoError(t, s.Add(ctx, newUser(t)))
		require.Len(t, db.queries, 1)

		events := s.CollectEvents()
		require.Len(t, events, 1)
		assert.Equal(t, user.EventCreated, events[0].Type())
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStorage(&fakeDB{ExecFunc: uniqueViolation("users_email_key")})

		err := s.Add(ctx, newUser(t))
		assert.ErrorIs(t, err, user.ErrUserEmailDuplicate)
		assert.ErrorIs(t, err, user.ErrUserExists)
		assert.Empty(t, s.CollectEvents())
	})

	t.Run("duplicate id", func(t *testing.T) {
		s := newStorage(&fakeDB{ExecFunc: uniqueViolation("users_pkey")})

		err := s.Add(ctx, newUser(t))
		assert.ErrorIs(t, err, user.ErrUserExists)
		assert.NotErrorIs(t, err, user.ErrUserEmailDuplicate)
	})

	t.Run("failure", func(t *testing.T) {
		s := newStorage(&fakeDB{ExecFunc: func(string, ...any) (sql.Result, error) {
			return nil, errors.New("connection reset")
		}})

		err := s.Add(ctx, newUser(t))
		assert.ErrorIs(t, err, storage.ErrInternal)
		assert.NotErrorIs(t, err, user.ErrUserExists)
	})
}

func TestUserRow_ToDomain(t *testing.T) {
	h := 172.5
	squat := 140.0
	row := userRow{
		UserID: "u1",
		Email:  "ann@example.com",
		Name:   "Ann",
		Role:   "TRAINER",
		Height: &h,
		Squat:  &squat,
	}

	u := row.toDomain()
	h = 1
	squat = 1

	assert.Equal(t, user.RoleTrainer, u.Role)
	require.NotNil(t, u.Height)
	assert.Equal(t, 172.5, *u.Height)
	require.NotNil(t, u.Squat)
	assert.Equal(t, 140.0, *u.Squat)
	assert.Nil(t, u.BenchPress)
	assert.Nil(t, u.Deadlift)
	assert.Nil(t, u.Weight)
}
