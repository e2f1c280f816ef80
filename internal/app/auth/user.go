package auth

import (
	"context"
	"errors"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/google/uuid"
	"log/slog"
)

type Service struct {
	logger     *slog.Logger
	Authorizer *Authorizer
}

func NewService(auth *Authorizer, logger *slog.Logger) *Service {
	return &Service{
		logger:     logger,
		Authorizer: auth,
	}
}

func (s *Service) SignUp(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	name string,
	email string,
	password string,
) (u *user.User, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		var err error
		u, err = user.NewUser(uuid.NewString(), name, email, password, s.Authorizer)
		if err != nil {
			return err
		}
		if err := ctx.UserStorage.Add(ctx.Context(), u); err != nil {
			return err
		}

		return ctx.Commit()
	})
	return
}

func (s *Service) Login(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	device user.Device,
	email string,
	password string,
) (tokens Tokens, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		u, err := ctx.UserStorage.GetByEmail(ctx.Context(), email)
		if errors.Is(err, user.ErrUserNotFound) {
			return user.ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		if err := u.Authorize(s.Authorizer, password, device); err != nil {
			return err
		}

		accessToken, err := s.Authorizer.GenerateAccessToken(u)
		if err != nil {
			return err
		}

		tokens = Tokens{
			AccessToken: accessToken,
			UserID:      u.UserID,
			Role:        u.Role,
		}
		return ctx.Commit()
	})
	return
}

type Tokens struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	Role        user.Role `json:"role"`
}
