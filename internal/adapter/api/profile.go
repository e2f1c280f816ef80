package api

import (
	profileapp "github.com/burenotti/go_bmi_backend/internal/app/profile"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/labstack/echo/v4"
	"net/http"
	"time"
)

func (s *Server) MountProfile() {
	loginRequired := LoginRequired(s.authService.Authorizer)

	s.handler.GET("/profiles/me", s.GetMyProfile, loginRequired)
	s.handler.PATCH("/profiles/me", s.UpdateMyProfile, loginRequired)
}

func (s *Server) getProfileUoW() *unitofwork.UnitOfWork[*profileapp.AtomicContext] {
	return unitofwork.New[*profileapp.AtomicContext](
		s.db,
		profileapp.NewAtomicContext(s.repos),
		s.msgBus,
		s.logger,
	)
}

type ProfileResponse struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   user.Role `json:"role"`
	Height *float64  `json:"height"`
	Weight *float64  `json:"weight"`
	Age    *int      `json:"age"`
	Gender string    `json:"gender,omitempty"`
	Goals  string    `json:"goals,omitempty"`
	// Personal bests in kilograms.
	BenchPress *float64 `json:"bench_press"`
	Squat      *float64 `json:"squat"`
	Deadlift   *float64 `json:"deadlift"`
	// BMI and Category are derived from the current height and weight and
	// are omitted while either is missing.
	BMI       *float64     `json:"bmi,omitempty"`
	Category  bmi.Category `json:"category,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func newProfileResponse(u *user.User) ProfileResponse {
	resp := ProfileResponse{
		UserID:     u.UserID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Height:     u.Height,
		Weight:     u.Weight,
		Age:        u.Age,
		Gender:     u.Gender,
		Goals:      u.Goals,
		BenchPress: u.BenchPress,
		Squat:      u.Squat,
		Deadlift:   u.Deadlift,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if p, ok := u.BMI(); ok {
		resp.BMI = &p.BMI
		resp.Category = p.Category
	}
	return resp
}

func (s *Server) GetMyProfile(c echo.Context) error {
	current := currentUser(c)

	u, err := s.profileService.GetProfile(c.Request().Context(), s.getProfileUoW(), current.UserID)
	if err != nil {
		return s.domainError(c, err)
	}

	return c.JSON(http.StatusOK, newProfileResponse(u))
}

type UpdateProfileRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Height      *float64 `json:"height,omitempty" validate:"omitempty,gte=30,lte=300"`
	Weight      *float64 `json:"weight,omitempty" validate:"omitempty,gt=0,lt=700"`
	Age         *int     `json:"age,omitempty" validate:"omitempty,gt=0,lt=150"`
	Gender      *string  `json:"gender,omitempty" validate:"omitempty,max=32"`
	Goals       *string  `json:"goals,omitempty" validate:"omitempty,max=1024"`
	BenchPress  *float64 `json:"bench_press,omitempty" validate:"omitempty,gt=0,lt=1000"`
	Squat       *float64 `json:"squat,omitempty" validate:"omitempty,gt=0,lt=1000"`
	Deadlift    *float64 `json:"deadlift,omitempty" validate:"omitempty,gt=0,lt=1000"`
	ClearHeight bool     `json:"clear_height,omitempty"`
}

func (s *Server) UpdateMyProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}
	current := currentUser(c)

	u, err := s.profileService.UpdateProfile(
		c.Request().Context(),
		s.getProfileUoW(),
		current.UserID,
		user.ProfileUpdate{
			Name:        req.Name,
			Height:      req.Height,
			Weight:      req.Weight,
			Age:         req.Age,
			Gender:      req.Gender,
			Goals:       req.Goals,
			BenchPress:  req.BenchPress,
			Squat:       req.Squat,
			Deadlift:    req.Deadlift,
			ClearHeight: req.ClearHeight,
		},
	)
	if err != nil {
		return s.domainError(c, err)
	}

	return c.JSON(http.StatusOK, newProfileResponse(u))
}
