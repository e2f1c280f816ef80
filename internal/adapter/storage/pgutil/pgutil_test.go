package pgutil

import (
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type fakeResult struct {
	affected int64
	err      error
}

func (r fakeResult) LastInsertId() (int64, error) {
	return 0, errors.New("not supported")
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.affected, r.err
}

func TestViolatesConstraint(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "users_email_key",
	}

	assert.True(t, ViolatesConstraint(pgErr, "users_email_key"))
	assert.True(t, ViolatesConstraint(storage.InternalError(pgErr), "users_email_key"))
	assert.False(t, ViolatesConstraint(pgErr, "users_pkey"))
	assert.False(t, ViolatesConstraint(errors.New("boom"), "users_email_key"))

	syntax := &pgconn.PgError{Code: pgerrcode.SyntaxError, ConstraintName: "users_email_key"}
	assert.False(t, ViolatesConstraint(syntax, "users_email_key"))
}

func TestPeekOrErr(t *testing.T) {
	notFound := errors.New("not found")

	v, err := PeekOrErr(map[string]int{"a": 1}, nil, notFound)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = PeekOrErr(map[string]int{}, nil, notFound)
	assert.ErrorIs(t, err, notFound)

	boom := errors.New("boom")
	_, err = PeekOrErr(map[string]int{"a": 1}, boom, notFound)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 7, Peek(map[string]int{}, 7))
}

func TestMakeUpdateQuery(t *testing.T) {
	changes := diff.Changelog{
		{Type: diff.UPDATE, Path: []string{"name"}, From: "Ann", To: "Anna"},
		{Type: diff.DELETE, Path: []string{"height"}, From: 170.0, To: nil},
	}

	q := sqlf.PostgreSQL.Update("users").Where("user_id = ?", "u1")
	q = MakeUpdateQuery(q, changes)
	defer q.Close()

	sql := q.String()
	assert.Contains(t, sql, "UPDATE users SET")
	assert.Contains(t, sql, "name")
	assert.Contains(t, sql, "height")
	assert.ElementsMatch(t, []any{"Anna", nil, "u1"}, q.Args())
}

func TestMakeUpdateQuery_NestedPathPanics(t *testing.T) {
	changes := diff.Changelog{
		{Type: diff.UPDATE, Path: []string{"device", "os"}, From: "a", To: "b"},
	}
	assert.Panics(t, func() {
		MakeUpdateQuery(sqlf.PostgreSQL.Update("users"), changes)
	})
}

func TestAssertUpdated(t *testing.T) {
	notUpdated := errors.New("not updated")

	assert.NoError(t, AssertUpdated(fakeResult{affected: 1}, nil, notUpdated))
	assert.ErrorIs(t, AssertUpdated(fakeResult{affected: 0}, nil, notUpdated), notUpdated)
	assert.ErrorIs(t, AssertUpdated(nil, errors.New("boom"), notUpdated), storage.ErrInternal)
}

func TestAssertInserted(t *testing.T) {
	inserted, err := AssertInserted(fakeResult{affected: 1}, nil)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = AssertInserted(fakeResult{affected: 0}, nil)
	require.NoError(t, err)
	assert.False(t, inserted)

	_, err = AssertInserted(nil, errors.New("boom"))
	assert.ErrorIs(t, err, storage.ErrInternal)
}
