package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/app/auth"
	bmiapp "github.com/burenotti/go_bmi_backend/internal/app/bmi"
	profileapp "github.com/burenotti/go_bmi_backend/internal/app/profile"
	trainerapp "github.com/burenotti/go_bmi_backend/internal/app/trainer"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	slogecho "github.com/samber/slog-echo"
	"log/slog"
	"net/http"
	"time"
)

type Server struct {
	handler         *echo.Echo
	logger          *slog.Logger
	addr            string
	db              storage.TxBeginner
	repos           storage.Repositories
	authService     *auth.Service
	profileService  *profileapp.Service
	bmiService      *bmiapp.Service
	trainerService  *trainerapp.Service
	trainerCacheTTL time.Duration
	metrics         *metrics.Manager
	gatherer        prometheus.Gatherer
	metricsPath     string
	msgBus          unitofwork.MessageBus
	validator       *validator.Validate
}

func NewServer(opt ...Option) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Server.WriteTimeout = 10 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.IdleTimeout = 10 * time.Second
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.MaxHeaderBytes = 4096

	v := validator.New(validator.WithRequiredStructEnabled())

	s := &Server{
		handler:     e,
		logger:      slog.Default(),
		validator:   v,
		metricsPath: "/metrics",
	}

	for _, opt := range opt {
		opt(s)
	}

	e.Use(slogecho.NewWithConfig(s.logger, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelInfo,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	e.Use(middleware.Recover())
	if s.metrics != nil {
		e.Use(RequestMetrics(s.metrics))
	}
	s.Mount()
	return s
}

func (s *Server) Mount() {
	s.MountHealth()
	s.MountAuth()
	s.MountProfile()
	s.MountBMI()
	s.MountTrainer()
}

func (s *Server) Start() error {
	return s.handler.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.handler.Shutdown(ctx)
}

// ServeHTTP lets the server be driven without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) bind(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		return fmt.Errorf("bad request")
	}
	if err := s.validator.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("bad request")
		}
		return fmt.Errorf("%s: %s", errs[0].Field(), errs[0].Error())

	}
	return nil
}
