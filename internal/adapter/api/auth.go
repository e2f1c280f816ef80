package api

import (
	"github.com/burenotti/go_bmi_backend/internal/app/auth"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	"net/http"
)

func (s *Server) MountAuth() {
	authRoutes := s.handler.Group("/auth")

	authRoutes.POST("/login", s.Login)
	authRoutes.POST("/sign-up", s.SignUp)
}

func (s *Server) getAuthUoW() *unitofwork.UnitOfWork[*auth.AtomicContext] {
	return unitofwork.New[*auth.AtomicContext](
		s.db,
		auth.NewAtomicContext(s.repos),
		s.msgBus,
		s.logger,
	)
}

type loginReq struct {
	Email    string `json:"email" form:"username" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

type loginResp struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	Role        user.Role `json:"role"`
}

func (s *Server) Login(c echo.Context) error {
	var b loginReq
	if err := s.bind(c, &b); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	agent := useragent.Parse(c.Request().UserAgent())

	device := user.Device{
		Browser:   agent.Name,
		OS:        agent.OS,
		IPAddress: c.RealIP(),
		Model:     agent.Device,
	}

	tokens, err := s.authService.Login(c.Request().Context(), s.getAuthUoW(), device, b.Email, b.Password)
	if err != nil {
		return s.domainError(c, err)
	}
	return c.JSON(http.StatusOK, &loginResp{
		AccessToken: tokens.AccessToken,
		UserID:      tokens.UserID,
		Role:        tokens.Role,
	})
}

type signUpReq struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type signUpResp struct {
	UserID string `json:"user_id"`
}

func (s *Server) SignUp(c echo.Context) error {
	var b signUpReq
	if err := s.bind(c, &b); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	u, err := s.authService.SignUp(c.Request().Context(), s.getAuthUoW(), b.Name, b.Email, b.Password)
	if err != nil {
		return s.domainError(c, err)
	}

	return c.JSON(http.StatusCreated, &signUpResp{UserID: u.UserID})
}
