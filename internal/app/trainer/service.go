// Package trainerapp builds the read-only trainer dashboard: every user's
// BMI series and per-user summaries.
package trainerapp

import (
	"context"
	"encoding/json"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/samber/lo"
	"log/slog"
)

const allUsersKey = "trainer::all_users_bmi"

type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Clear()
}

type CacheStats interface {
	ObserveCacheLookup(hit bool)
}

type UserSeries struct {
	UserID string      `json:"user_id"`
	Name   string      `json:"name"`
	Series []bmi.Point `json:"bmi_data"`
}

// UserReport backs the per-user drill down. Table is newest first; Summary
// is nil for an empty ledger.
type UserReport struct {
	UserID  string       `json:"user_id"`
	Name    string       `json:"name"`
	Summary *bmi.Summary `json:"summary"`
	Table   []bmi.Point  `json:"table"`
}

type Service struct {
	logger *slog.Logger
	cache  Cache
	stats  CacheStats
}

func New(logger *slog.Logger, cache Cache, stats CacheStats) *Service {
	return &Service{
		logger: logger,
		cache:  cache,
		stats:  stats,
	}
}

// GetAllUsersBMI returns one series per user that has a ledger, in user
// enumeration order. Users without a ledger are left out, and so is a user
// whose stored entries no longer yield a valid BMI. The result may be
// served from a cache that is dropped whenever a ledger changes.
func (s *Service) GetAllUsersBMI(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
) ([]UserSeries, error) {
	if cached, ok := s.fromCache(); ok {
		return cached, nil
	}

	var result []UserSeries
	err := uow.Atomic(ctx, func(ctx *AtomicContext) error {
		users, err := ctx.UserStorage.List(ctx.Context())
		if err != nil {
			return err
		}

		ledgers, err := ctx.LedgerStorage.List(ctx.Context())
		if err != nil {
			return err
		}

		result = make([]UserSeries, 0, len(ledgers))
		for _, u := range users {
			l, ok := ledgers[u.UserID]
			if !ok {
				continue
			}

			points, err := l.Points()
			if err != nil {
				s.logger.Warn("user left out of trainer view", "user_id", u.UserID, "err", err)
				continue
			}

			result = append(result, UserSeries{
				UserID: u.UserID,
				Name:   u.Name,
				Series: points,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.toCache(result)
	return result, nil
}

func (s *Service) GetUserSummary(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	userID string,
) (report UserReport, err error) {
	err = uow.Atomic(ctx, func(ctx *AtomicContext) error {
		u, err := ctx.UserStorage.GetByID(ctx.Context(), userID)
		if err != nil {
			return err
		}

		l, err := ctx.LedgerStorage.GetByUserID(ctx.Context(), userID)
		if err != nil {
			return err
		}

		points, err := l.Points()
		if err != nil {
			return err
		}

		report = UserReport{
			UserID: u.UserID,
			Name:   u.Name,
			Table:  bmi.NewestFirst(points),
		}
		if len(points) > 0 {
			summary, err := bmi.Summarize(points)
			if err != nil {
				return err
			}
			report.Summary = &summary
		}
		return nil
	})
	return
}

// Invalidate drops cached aggregates. It is wired to ledger events.
func (s *Service) Invalidate() {
	s.cache.Clear()
}

// CountSeries is a helper for logs: users included and total points.
func CountSeries(series []UserSeries) (users int, points int) {
	return len(series), lo.SumBy(series, func(us UserSeries) int {
		return len(us.Series)
	})
}

func (s *Service) fromCache() ([]UserSeries, bool) {
	data, err := s.cache.Get(allUsersKey)
	if err != nil {
		s.observe(false)
		return nil, false
	}

	var cached []UserSeries
	if err := json.Unmarshal(data, &cached); err != nil {
		s.logger.Error("failed to unmarshal cached trainer view", "err", err)
		s.observe(false)
		return nil, false
	}

	s.observe(true)
	return cached, true
}

func (s *Service) toCache(series []UserSeries) {
	data, err := json.Marshal(series)
	if err != nil {
		s.logger.Error("failed to marshal trainer view", "err", err)
		return
	}
	if err := s.cache.Set(allUsersKey, data); err != nil {
		users, points := CountSeries(series)
		s.logger.Warn("trainer view not cached", "err", err, "users", users, "points", points)
	}
}

func (s *Service) observe(hit bool) {
	if s.stats != nil {
		s.stats.ObserveCacheLookup(hit)
	}
}
