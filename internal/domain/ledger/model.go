package ledger

import (
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/google/uuid"
	"math"
	"sort"
	"time"
)

var (
	ErrLedgerNotFound = errors.New("bmi ledger not found")
	ErrMissingHeight  = errors.New("profile height is not set, complete the profile first")
	ErrInvalidWeight  = bmi.ErrInvalidWeight
	ErrInvalidHeight  = bmi.ErrInvalidHeight
)

const (
	EventCreated    = "ledger.created"
	EventEntryAdded = "ledger.entry_added"
)

type Entry struct {
	EntryID   string    `json:"entry_id"`
	Weight    float64   `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
}

// Ledger is the append-only weight history of one user. Height is a
// snapshot taken when the ledger was created and is never refreshed from
// the profile.
type Ledger struct {
	domain.Aggregate
	UserID    string
	Height    float64
	CreatedAt time.Time
	entries   []Entry
}

// New opens a ledger for a user whose profile height is heightCm. A nil or
// non-positive height means the profile is incomplete.
func New(userID string, heightCm *float64) (*Ledger, error) {
	if heightCm == nil {
		return nil, ErrMissingHeight
	}
	if h := *heightCm; math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
		return nil, fmt.Errorf("%w: height %v", ErrMissingHeight, h)
	}
	if !bmi.ValidHeight(*heightCm) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidHeight, *heightCm)
	}

	l := &Ledger{
		UserID:    userID,
		Height:    *heightCm,
		CreatedAt: time.Now().UTC(),
		entries:   make([]Entry, 0),
	}
	l.PushEvent(CreatedEvent{
		At:     l.CreatedAt,
		UserID: userID,
		Height: l.Height,
	})
	return l, nil
}

// Restore rebuilds a stored ledger without emitting events.
func Restore(userID string, height float64, createdAt time.Time, entries []Entry) *Ledger {
	l := &Ledger{
		UserID:    userID,
		Height:    height,
		CreatedAt: createdAt,
		entries:   make([]Entry, len(entries)),
	}
	copy(l.entries, entries)
	return l
}

// ValidateWeight accepts a positive weight below bmi.MaxWeightKg.
func ValidateWeight(weightKg float64) error {
	if !bmi.ValidWeight(weightKg) {
		return fmt.Errorf("%w: got %v, want below %v", ErrInvalidWeight, weightKg, bmi.MaxWeightKg)
	}
	return nil
}

// Append adds an entry at the end of the ledger. A zero ts means now.
func (l *Ledger) Append(weightKg float64, ts time.Time) (Entry, error) {
	if err := ValidateWeight(weightKg); err != nil {
		return Entry{}, err
	}
	if ts.IsZero() {
		ts = time.Now()
	}

	e := Entry{
		EntryID:   uuid.NewString(),
		Weight:    weightKg,
		Timestamp: ts.UTC(),
	}
	l.entries = append(l.entries, e)

	l.PushEvent(EntryAddedEvent{
		At:     time.Now().UTC(),
		UserID: l.UserID,
		Entry:  e,
	})
	return e, nil
}

// Entries returns the entries in insertion order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Chronological returns the entries sorted by timestamp. Insertion order
// and timestamp order differ when a caller backdates an entry.
func (l *Ledger) Chronological() []Entry {
	out := l.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Points derives a BMI point per entry, in insertion order, from the
// height snapshot.
func (l *Ledger) Points() ([]bmi.Point, error) {
	points := make([]bmi.Point, 0, len(l.entries))
	for _, e := range l.entries {
		p, err := bmi.NewPoint(e.Weight, l.Height, e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.EntryID, err)
		}
		points = append(points, p)
	}
	return points, nil
}

type CreatedEvent struct {
	At     time.Time
	UserID string
	Height float64
}

func (e CreatedEvent) Type() string {
	return EventCreated
}

func (e CreatedEvent) PublishedAt() time.Time {
	return e.At
}

type EntryAddedEvent struct {
	At     time.Time
	UserID string
	Entry  Entry
}

func (e EntryAddedEvent) Type() string {
	return EventEntryAdded
}

func (e EntryAddedEvent) PublishedAt() time.Time {
	return e.At
}
