package profileapp

import (
	"context"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"log/slog"
)

type Service struct {
	logger *slog.Logger
}

func New(
	logger *slog.Logger,
) *Service {
	return &Service{
		logger: logger,
	}
}

func (s *Service) GetProfile(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
) (u *user.User, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		u, err = ctx.UserStorage.GetByID(ctx.Context(), userID)
		return err
	})
	return
}

// UpdateProfile applies a partial edit. A new height is not copied into an
// existing BMI ledger.
func (s *Service) UpdateProfile(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
	upd user.ProfileUpdate,
) (u *user.User, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		u, err = ctx.UserStorage.GetByID(ctx.Context(), userID)
		if err != nil {
			return err
		}

		if err := u.UpdateProfile(upd); err != nil {
			return err
		}

		if err := ctx.UserStorage.Persist(ctx.Context(), u); err != nil {
			return err
		}

		return ctx.Commit()
	})
	return
}
