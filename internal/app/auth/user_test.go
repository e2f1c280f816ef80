package auth

import (
	"context"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage/memory"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type recordingBus struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordingBus) PublishEvents(events ...domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
	return nil
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]string, 0, len(b.events))
	for _, e := range b.events {
		types = append(types, e.Type())
	}
	return types
}

func newTestService(t *testing.T) (*Service, *unitofwork.UnitOfWork[*AtomicContext], *recordingBus) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := &recordingBus{}
	uow := unitofwork.New[*AtomicContext](memory.DB{}, NewAtomicContext(memory.New()), bus, logger)
	return NewService(newTestAuthorizer(), logger), uow, bus
}

func TestService_SignUpAndLogin(t *testing.T) {
	ctx := context.Background()
	s, uow, bus := newTestService(t)

	u, err := s.SignUp(ctx, uow, "Ann", "Ann@Example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, u.Role)

	tokens, err := s.Login(ctx, uow, user.Device{Browser: "Firefox"}, "ann@example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, tokens.UserID)

	data, err := s.Authorizer.ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, data.UserID)
	assert.Equal(t, user.RoleUser, data.Role)

	assert.Equal(t, []string{user.EventCreated, user.EventNewLogin}, bus.types())
}

func TestService_SignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, uow, _ := newTestService(t)

	_, err := s.SignUp(ctx, uow, "Ann", "ann@example.com", "secret-password")
	require.NoError(t, err)

	_, err = s.SignUp(ctx, uow, "Other Ann", " ANN@example.com", "secret-password")
	assert.ErrorIs(t, err, user.ErrUserEmailDuplicate)
	assert.ErrorIs(t, err, unitofwork.ErrRollback)
}

func TestService_SignUpPasswordTooLong(t *testing.T) {
	ctx := context.Background()
	s, uow, bus := newTestService(t)

	_, err := s.SignUp(ctx, uow, "Ann", "ann@example.com", strings.Repeat("é", 40))
	assert.ErrorIs(t, err, user.ErrInvalidPassword)
	assert.ErrorIs(t, err, unitofwork.ErrRollback)
	assert.Empty(t, bus.types())

	_, err = s.Login(ctx, uow, user.Device{}, "ann@example.com", strings.Repeat("é", 40))
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	s, uow, _ := newTestService(t)

	_, err := s.SignUp(ctx, uow, "Ann", "ann@example.com", "secret-password")
	require.NoError(t, err)

	_, err = s.Login(ctx, uow, user.Device{}, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = s.Login(ctx, uow, user.Device{}, "nobody@example.com", "secret-password")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}
