package bmiapp

import (
	"context"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage/memory"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/burenotti/go_bmi_backend/internal/domain/ledger"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return password, nil }
func (plainHasher) Compare(hash, password string) error    { return nil }

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

func (b *recordingBus) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.Type() == eventType {
			n++
		}
	}
	return n
}

type testEnv struct {
	store *memory.Store
	svc   *Service
	uow   *unitofwork.UnitOfWork[*AtomicContext]
	bus   *recordingBus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	bus := &recordingBus{}
	return &testEnv{
		store: store,
		svc:   New(logger),
		uow:   unitofwork.New[*AtomicContext](memory.DB{}, NewAtomicContext(store), bus, logger),
		bus:   bus,
	}
}

func (e *testEnv) addUser(t *testing.T, id string, height *float64) {
	t.Helper()
	u, err := user.NewUser(id, "User "+id, id+"@example.com", "secret-password", plainHasher{})
	require.NoError(t, err)
	u.Height = height
	require.NoError(t, e.store.Users(memory.DB{}).Add(context.Background(), u))
}

func (e *testEnv) setHeight(t *testing.T, id string, height *float64) {
	t.Helper()
	users := e.store.Users(memory.DB{})
	u, err := users.GetByID(context.Background(), id)
	require.NoError(t, err)
	u.Height = height
	require.NoError(t, users.Persist(context.Background(), u))
}

func cm(v float64) *float64 {
	return &v
}

func TestRecordWeight_FirstEntryCreatesLedger(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(180))

	entry, err := env.svc.RecordWeight(ctx, env.uow, "u1", 81, nil)
	require.NoError(t, err)
	assert.Equal(t, 81.0, entry.Weight)
	assert.WithinDuration(t, time.Now(), entry.Timestamp, 5*time.Second)

	h, err := env.svc.GetHistory(ctx, env.uow, "u1")
	require.NoError(t, err)
	assert.Equal(t, 180.0, h.Height)
	assert.Equal(t, []ledger.Entry{entry}, h.Entries)

	a, err := env.svc.GetAnalysis(ctx, env.uow, "u1")
	require.NoError(t, err)
	require.Len(t, a.Points, 1)
	assert.Equal(t, 25.0, a.Points[0].BMI)
	assert.Equal(t, bmi.Overweight, a.Points[0].Category)

	assert.Equal(t, 1, env.bus.count(ledger.EventCreated))
	assert.Equal(t, 1, env.bus.count(ledger.EventEntryAdded))
}

func TestRecordWeight_MissingHeight(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", nil)

	_, err := env.svc.RecordWeight(ctx, env.uow, "u1", 81, nil)
	assert.ErrorIs(t, err, ledger.ErrMissingHeight)

	_, err = env.svc.GetHistory(ctx, env.uow, "u1")
	assert.ErrorIs(t, err, ledger.ErrLedgerNotFound)
	assert.Zero(t, env.bus.count(ledger.EventCreated))
}

func TestRecordWeight_InvalidWeightCreatesNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(180))

	for _, w := range []float64{0, -3} {
		_, err := env.svc.RecordWeight(ctx, env.uow, "u1", w, nil)
		assert.ErrorIs(t, err, ledger.ErrInvalidWeight)
	}

	_, err := env.svc.GetHistory(ctx, env.uow, "u1")
	assert.ErrorIs(t, err, ledger.ErrLedgerNotFound)
}

func TestRecordWeight_InvalidWeightLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(180))

	_, err := env.svc.RecordWeight(ctx, env.uow, "u1", 81, nil)
	require.NoError(t, err)

	_, err = env.svc.RecordWeight(ctx, env.uow, "u1", -1, nil)
	assert.ErrorIs(t, err, ledger.ErrInvalidWeight)

	h, err := env.svc.GetHistory(ctx, env.uow, "u1")
	require.NoError(t, err)
	assert.Len(t, h.Entries, 1)
}

func TestRecordWeight_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RecordWeight(context.Background(), env.uow, "ghost", 81, nil)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRecordWeight_AppendOnlyOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(180))

	now := time.Now().UTC()
	backdated := now.Add(-72 * time.Hour)

	first, err := env.svc.RecordWeight(ctx, env.uow, "u1", 81, &now)
	require.NoError(t, err)
	second, err := env.svc.RecordWeight(ctx, env.uow, "u1", 83, &backdated)
	require.NoError(t, err)
	third, err := env.svc.RecordWeight(ctx, env.uow, "u1", 80, nil)
	require.NoError(t, err)

	h, err := env.svc.GetHistory(ctx, env.uow, "u1")
	require.NoError(t, err)
	assert.Equal(t, []ledger.Entry{first, second, third}, h.Entries)

	a, err := env.svc.GetAnalysis(ctx, env.uow, "u1")
	require.NoError(t, err)
	require.NotNil(t, a.Summary)
	assert.Equal(t, 3, a.Summary.Count)
	// The summary reads by timestamp, so the backdated entry is the start.
	assert.Equal(t, 83.0, a.Summary.StartingWeight)
	assert.Equal(t, 80.0, a.Summary.CurrentWeight)
}

func TestRecordWeight_HeightSnapshotIsFrozen(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(180))

	_, err := env.svc.RecordWeight(ctx, env.uow, "u1", 81, nil)
	require.NoError(t, err)

	env.setHeight(t, "u1", cm(160))

	_, err = env.svc.RecordWeight(ctx, env.uow, "u1", 81, nil)
	require.NoError(t, err)

	a, err := env.svc.GetAnalysis(ctx, env.uow, "u1")
	require.NoError(t, err)
	assert.Equal(t, 180.0, a.Height)
	for _, p := range a.Points {
		assert.Equal(t, 25.0, p.BMI)
	}

	// Clearing the profile height does not block an existing ledger.
	env.setHeight(t, "u1", nil)
	_, err = env.svc.RecordWeight(ctx, env.uow, "u1", 82, nil)
	assert.NoError(t, err)
}

func TestRecordWeight_UpdatesProfileWeight(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(180))

	_, err := env.svc.RecordWeight(ctx, env.uow, "u1", 79.4, nil)
	require.NoError(t, err)

	u, err := env.store.Users(memory.DB{}).GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u.Weight)
	assert.Equal(t, 79.4, *u.Weight)
}

func TestRecordWeight_ConcurrentAppendsArePreserved(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(180))

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(w float64) {
			defer wg.Done()
			_, err := env.svc.RecordWeight(ctx, env.uow, "u1", w, nil)
			errs <- err
		}(float64(70 + i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	h, err := env.svc.GetHistory(ctx, env.uow, "u1")
	require.NoError(t, err)
	assert.Len(t, h.Entries, writers)
	assert.Equal(t, 1, env.bus.count(ledger.EventCreated))
	assert.Equal(t, writers, env.bus.count(ledger.EventEntryAdded))
}

func TestGetOrCreateLedger(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(175))
	env.addUser(t, "u2", nil)

	l, err := env.svc.GetOrCreateLedger(ctx, env.uow, "u1")
	require.NoError(t, err)
	assert.Equal(t, 175.0, l.Height)
	assert.Zero(t, l.Len())

	env.setHeight(t, "u1", cm(190))
	again, err := env.svc.GetOrCreateLedger(ctx, env.uow, "u1")
	require.NoError(t, err)
	assert.Equal(t, 175.0, again.Height)

	_, err = env.svc.GetOrCreateLedger(ctx, env.uow, "u2")
	assert.ErrorIs(t, err, ledger.ErrMissingHeight)
}

func TestGetAnalysis_EmptyLedger(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(175))

	_, err := env.svc.GetOrCreateLedger(ctx, env.uow, "u1")
	require.NoError(t, err)

	a, err := env.svc.GetAnalysis(ctx, env.uow, "u1")
	require.NoError(t, err)
	assert.Empty(t, a.Points)
	assert.Nil(t, a.Summary)
}

func TestReadsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", cm(180))

	_, err := env.svc.RecordWeight(ctx, env.uow, "u1", 81, nil)
	require.NoError(t, err)

	first, err := env.svc.GetAnalysis(ctx, env.uow, "u1")
	require.NoError(t, err)
	second, err := env.svc.GetAnalysis(ctx, env.uow, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
