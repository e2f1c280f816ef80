// Package bmiapp records weight entries and serves a user's own BMI history.
package bmiapp

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/burenotti/go_bmi_backend/internal/domain/ledger"
	"log/slog"
	"time"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// History is the raw ledger: the height snapshot and entries in the order
// they were recorded.
type History struct {
	Height  float64        `json:"height"`
	Entries []ledger.Entry `json:"entries"`
}

// Analysis is the single-user view. Summary is nil while the ledger is
// empty.
type Analysis struct {
	Height  float64      `json:"height"`
	Points  []bmi.Point  `json:"points"`
	Summary *bmi.Summary `json:"summary"`
}

// RecordWeight appends an entry to the user's ledger, creating the ledger
// from the profile height on first use. A nil ts records the current time.
func (s *Service) RecordWeight(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
	weightKg float64,
	ts *time.Time,
) (entry ledger.Entry, err error) {
	if err := ledger.ValidateWeight(weightKg); err != nil {
		return ledger.Entry{}, err
	}

	var at time.Time
	if ts != nil {
		at = *ts
	}

	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		l, err := s.getOrCreateLedger(ctx, userID)
		if err != nil {
			return err
		}

		entry, err = l.Append(weightKg, at)
		if err != nil {
			return err
		}

		if err := ctx.LedgerStorage.AppendEntry(ctx.Context(), l, entry); err != nil {
			return err
		}

		u, err := ctx.UserStorage.GetByID(ctx.Context(), userID)
		if err != nil {
			return err
		}
		u.RecordWeight(weightKg)
		if err := ctx.UserStorage.Persist(ctx.Context(), u); err != nil {
			return err
		}

		return ctx.Commit()
	})
	if err != nil {
		return ledger.Entry{}, err
	}

	s.logger.Debug("weight recorded", "user_id", userID, "entry_id", entry.EntryID)
	return entry, nil
}

// GetOrCreateLedger returns the user's ledger. When there is none yet it
// opens one with the current profile height, or fails with
// ledger.ErrMissingHeight if the profile has no height.
func (s *Service) GetOrCreateLedger(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
) (l *ledger.Ledger, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		l, err = s.getOrCreateLedger(ctx, userID)
		if err != nil {
			return err
		}
		return ctx.Commit()
	})
	return
}

func (s *Service) getOrCreateLedger(ctx *AtomicContext, userID string) (*ledger.Ledger, error) {
	l, err := ctx.LedgerStorage.GetByUserID(ctx.Context(), userID)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, ledger.ErrLedgerNotFound) {
		return nil, err
	}

	u, err := ctx.UserStorage.GetByID(ctx.Context(), userID)
	if err != nil {
		return nil, err
	}

	l, err = ledger.New(userID, u.Height)
	if err != nil {
		return nil, err
	}

	created, err := ctx.LedgerStorage.Create(ctx.Context(), l)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("bmi ledger created", "user_id", userID, "height", l.Height)
		return l, nil
	}

	// Lost a race against another first submission for the same user.
	return ctx.LedgerStorage.GetByUserID(ctx.Context(), userID)
}

func (s *Service) GetHistory(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
) (h History, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		l, err := ctx.LedgerStorage.GetByUserID(ctx.Context(), userID)
		if err != nil {
			return err
		}

		h = History{
			Height:  l.Height,
			Entries: l.Entries(),
		}
		return nil
	})
	return
}

func (s *Service) GetAnalysis(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
) (a Analysis, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		l, err := ctx.LedgerStorage.GetByUserID(ctx.Context(), userID)
		if err != nil {
			return err
		}

		points, err := l.Points()
		if err != nil {
			return fmt.Errorf("derive bmi points: %w", err)
		}

		a = Analysis{
			Height: l.Height,
			Points: points,
		}
		if len(points) > 0 {
			summary, err := bmi.Summarize(points)
			if err != nil {
				return err
			}
			a.Summary = &summary
		}
		return nil
	})
	return
}
