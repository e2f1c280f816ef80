package api

import (
	"fmt"
	trainerapp "github.com/burenotti/go_bmi_backend/internal/app/trainer"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/labstack/echo/v4"
	"net/http"
)

func (s *Server) MountTrainer() {
	trainerRoutes := s.handler.Group(
		"/trainer",
		LoginRequired(s.authService.Authorizer),
		RoleRequired(user.RoleTrainer),
	)
	trainerRoutes.GET("/bmi", s.GetAllUsersBMI)
	trainerRoutes.GET("/users/:user_id/summary", s.GetUserSummary)
}

func (s *Server) getTrainerUoW() *unitofwork.UnitOfWork[*trainerapp.AtomicContext] {
	return unitofwork.New[*trainerapp.AtomicContext](
		s.db,
		trainerapp.NewAtomicContext(s.repos),
		s.msgBus,
		s.logger,
	)
}

func (s *Server) GetAllUsersBMI(c echo.Context) error {
	series, err := s.trainerService.GetAllUsersBMI(c.Request().Context(), s.getTrainerUoW())
	if err != nil {
		return s.domainError(c, err)
	}

	if ttl := int(s.trainerCacheTTL.Seconds()); ttl > 0 {
		c.Response().Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", ttl))
	} else {
		c.Response().Header().Set("Cache-Control", "no-store")
	}
	return c.JSON(http.StatusOK, series)
}

type GetUserSummaryRequest struct {
	UserID string `param:"user_id" validate:"required"`
}

func (s *Server) GetUserSummary(c echo.Context) error {
	var req GetUserSummaryRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	report, err := s.trainerService.GetUserSummary(c.Request().Context(), s.getTrainerUoW(), req.UserID)
	if err != nil {
		return s.domainError(c, err)
	}

	return c.JSON(http.StatusOK, report)
}
