package profileapp

import (
	"context"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain"
)

type AtomicContext struct {
	ctx         context.Context
	dbContext   storage.DBContext
	UserStorage storage.UserRepository
}

func NewAtomicContext(repos storage.Repositories) unitofwork.ContextFactory[*AtomicContext] {
	return func(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
		return &AtomicContext{
			ctx:         ctx,
			dbContext:   dbContext,
			UserStorage: repos.Users(dbContext),
		}, nil
	}
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.dbContext.Commit()
}

func (a *AtomicContext) Close() error {
	return a.UserStorage.Close()
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.UserStorage.CollectEvents()
}
