package api

import (
	bmiapp "github.com/burenotti/go_bmi_backend/internal/app/bmi"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/ledger"
	"github.com/labstack/echo/v4"
	"net/http"
	"time"
)

func (s *Server) MountBMI() {
	loginRequired := LoginRequired(s.authService.Authorizer)

	bmiRoutes := s.handler.Group("/bmi", loginRequired)
	bmiRoutes.POST("/entries", s.RecordWeight)
	bmiRoutes.GET("/history", s.GetHistory)
	bmiRoutes.GET("/analysis", s.GetAnalysis)
}

func (s *Server) getBMIUoW() *unitofwork.UnitOfWork[*bmiapp.AtomicContext] {
	return unitofwork.New[*bmiapp.AtomicContext](
		s.db,
		bmiapp.NewAtomicContext(s.repos),
		s.msgBus,
		s.logger,
	)
}

// Weight is validated by the ledger rather than the validator so that an
// invalid value yields the same error whatever the entry point.
type RecordWeightRequest struct {
	Weight    float64    `json:"weight"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type RecordWeightResponse struct {
	Entry ledger.Entry `json:"entry"`
}

func (s *Server) RecordWeight(c echo.Context) error {
	var req RecordWeightRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	current := currentUser(c)

	entry, err := s.bmiService.RecordWeight(
		c.Request().Context(),
		s.getBMIUoW(),
		current.UserID,
		req.Weight,
		req.Timestamp,
	)
	if err != nil {
		return s.domainError(c, err)
	}

	return c.JSON(http.StatusOK, RecordWeightResponse{Entry: entry})
}

func (s *Server) GetHistory(c echo.Context) error {
	current := currentUser(c)

	h, err := s.bmiService.GetHistory(c.Request().Context(), s.getBMIUoW(), current.UserID)
	if err != nil {
		return s.domainError(c, err)
	}

	return c.JSON(http.StatusOK, h)
}

func (s *Server) GetAnalysis(c echo.Context) error {
	current := currentUser(c)

	a, err := s.bmiService.GetAnalysis(c.Request().Context(), s.getBMIUoW(), current.UserID)
	if err != nil {
		return s.domainError(c, err)
	}

	return c.JSON(http.StatusOK, a)
}
