package api

import (
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/app/auth"
	bmiapp "github.com/burenotti/go_bmi_backend/internal/app/bmi"
	profileapp "github.com/burenotti/go_bmi_backend/internal/app/profile"
	trainerapp "github.com/burenotti/go_bmi_backend/internal/app/trainer"
	"github.com/burenotti/go_bmi_backend/internal/app/unitofwork"
	"github.com/burenotti/go_bmi_backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"
	"net"
	"strconv"
	"time"
)

type Option func(*Server)

func Addr(host string, port int) Option {
	return func(s *Server) {
		s.addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
}

func Logger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// Storage sets the transaction source and the repositories bound to it.
func Storage(db storage.TxBeginner, repos storage.Repositories) Option {
	return func(s *Server) {
		s.db = db
		s.repos = repos
	}
}

func AuthService(service *auth.Service) Option {
	return func(s *Server) {
		s.authService = service
	}
}

func ProfileService(service *profileapp.Service) Option {
	return func(s *Server) {
		s.profileService = service
	}
}

func BMIService(service *bmiapp.Service) Option {
	return func(s *Server) {
		s.bmiService = service
	}
}

// TrainerService also sets how long clients may cache trainer responses.
func TrainerService(service *trainerapp.Service, cacheTTL time.Duration) Option {
	return func(s *Server) {
		s.trainerService = service
		s.trainerCacheTTL = cacheTTL
	}
}

// Metrics enables request instrumentation and exposes g at path.
func Metrics(m *metrics.Manager, g prometheus.Gatherer, path string) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
		if path != "" {
			s.metricsPath = path
		}
	}
}

func MessageBus(bus unitofwork.MessageBus) Option {
	return func(s *Server) {
		s.msgBus = bus
	}
}
