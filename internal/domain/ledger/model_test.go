package ledger

import (
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
	"time"
)

func height(v float64) *float64 {
	return &v
}

func TestNew(t *testing.T) {
	l, err := New("user-1", height(180))
	require.NoError(t, err)

	assert.Equal(t, "user-1", l.UserID)
	assert.Equal(t, 180.0, l.Height)
	assert.Zero(t, l.Len())

	events := l.PopEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventCreated, events[0].Type())
}

func TestNew_MissingHeight(t *testing.T) {
	for _, h := range []*float64{nil, height(0), height(-170), height(math.NaN())} {
		l, err := New("user-1", h)
		assert.ErrorIs(t, err, ErrMissingHeight)
		assert.Nil(t, l)
	}
}

func TestAppend_InvalidWeight(t *testing.T) {
	l, err := New("user-1", height(180))
	require.NoError(t, err)
	l.PopEvents()

	for _, w := range []float64{0, -1, math.NaN(), math.Inf(1), 1e305, bmi.MaxWeightKg} {
		_, err := l.Append(w, time.Time{})
		assert.ErrorIs(t, err, ErrInvalidWeight)
		assert.ErrorIs(t, err, bmi.ErrInvalidWeight)
	}
	assert.Zero(t, l.Len())
	assert.Empty(t, l.PopEvents())
}

func TestNew_ImplausibleHeight(t *testing.T) {
	for _, h := range []*float64{height(1e-10), height(bmi.MinHeightCm - 1), height(bmi.MaxHeightCm + 1)} {
		l, err := New("user-1", h)
		assert.ErrorIs(t, err, ErrInvalidHeight)
		assert.NotErrorIs(t, err, ErrMissingHeight)
		assert.Nil(t, l)
	}
}

func TestValidateWeight(t *testing.T) {
	assert.NoError(t, ValidateWeight(81))
	assert.NoError(t, ValidateWeight(bmi.MaxWeightKg-0.1))
	assert.ErrorIs(t, ValidateWeight(1e305), ErrInvalidWeight)
	assert.ErrorIs(t, ValidateWeight(-5), ErrInvalidWeight)
}

func TestAppend_KeepsInsertionOrder(t *testing.T) {
	l, err := New("user-1", height(180))
	require.NoError(t, err)

	now := time.Now().UTC()
	first, err := l.Append(81, now)
	require.NoError(t, err)
	backdated, err := l.Append(82, now.Add(-48*time.Hour))
	require.NoError(t, err)
	third, err := l.Append(80, now.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []Entry{first, backdated, third}, l.Entries())
	assert.Equal(t, []Entry{backdated, first, third}, l.Chronological())
	assert.NotEqual(t, first.EntryID, backdated.EntryID)
}

func TestAppend_DefaultsTimestampToNow(t *testing.T) {
	l, err := New("user-1", height(180))
	require.NoError(t, err)

	e, err := l.Append(81, time.Time{})
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now(), e.Timestamp, 5*time.Second)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
}

func TestAppend_PushesEvent(t *testing.T) {
	l, err := New("user-1", height(180))
	require.NoError(t, err)
	l.PopEvents()

	e, err := l.Append(81, time.Time{})
	require.NoError(t, err)

	events := l.PopEvents()
	require.Len(t, events, 1)
	added, ok := events[0].(EntryAddedEvent)
	require.True(t, ok)
	assert.Equal(t, "user-1", added.UserID)
	assert.Equal(t, e, added.Entry)
}

func TestPoints_UseHeightSnapshot(t *testing.T) {
	ts := time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)
	l := Restore("user-1", 180, ts, []Entry{
		{EntryID: "a", Weight: 81, Timestamp: ts},
		{EntryID: "b", Weight: 70, Timestamp: ts.Add(time.Hour)},
	})

	points, err := l.Points()
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 25.0, points[0].BMI)
	assert.Equal(t, bmi.Overweight, points[0].Category)
	assert.Equal(t, 21.6, points[1].BMI)
	assert.Equal(t, bmi.NormalWeight, points[1].Category)
}

func TestRestore(t *testing.T) {
	ts := time.Now().UTC()
	entries := []Entry{{EntryID: "a", Weight: 81, Timestamp: ts}}

	l := Restore("user-1", 180, ts, entries)
	entries[0].Weight = 1

	assert.Empty(t, l.PopEvents())
	assert.Equal(t, 81.0, l.Entries()[0].Weight)

	out := l.Entries()
	out[0].Weight = 2
	assert.Equal(t, 81.0, l.Entries()[0].Weight)
}
