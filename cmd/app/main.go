package main

import (
	"context"
	"errors"
	"flag"
	"github.com/burenotti/go_bmi_backend/internal/adapter/api"
	"github.com/burenotti/go_bmi_backend/internal/adapter/cache"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage/memory"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage/postgres"
	"github.com/burenotti/go_bmi_backend/internal/app/auth"
	bmiapp "github.com/burenotti/go_bmi_backend/internal/app/bmi"
	"github.com/burenotti/go_bmi_backend/internal/app/messagebus"
	profileapp "github.com/burenotti/go_bmi_backend/internal/app/profile"
	trainerapp "github.com/burenotti/go_bmi_backend/internal/app/trainer"
	"github.com/burenotti/go_bmi_backend/internal/config"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/ledger"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/burenotti/go_bmi_backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	logger := initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, repos, closeDB := initStorage(ctx, cfg, logger)
	defer closeDB()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager("bmi", "backend", reg)

	var trainerCache trainerapp.Cache = cache.Nop{}
	if cfg.Cache.TrainerTTL > 0 {
		trainerCache = cache.New(cfg.Cache.SizeMB, cfg.Cache.TrainerTTL)
	}

	authorizer := &auth.Authorizer{
		Cost:           bcrypt.DefaultCost,
		Secret:         cfg.JWT.Secret,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	}

	authService := auth.NewService(authorizer, logger)
	profileService := profileapp.New(logger)
	bmiService := bmiapp.New(logger)
	trainerService := trainerapp.New(logger, trainerCache, metricsManager)

	bus := messagebus.New(logger)
	registerHandlers(bus, logger, metricsManager, trainerService)

	opts := []api.Option{
		api.Addr(cfg.Server.Host, cfg.Server.Port),
		api.Logger(logger),
		api.Storage(db, repos),
		api.AuthService(authService),
		api.ProfileService(profileService),
		api.BMIService(bmiService),
		api.TrainerService(trainerService, cfg.Cache.TrainerTTL),
		api.MessageBus(bus),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, api.Metrics(metricsManager, reg, cfg.Metrics.Path))
	}
	server := api.NewServer(opts...)

	errCh := make(chan error)

	go func() {
		defer close(errCh)
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port, "driver", cfg.DB.Driver)
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server was not shutdown gracefully", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server closed with unexpected error", "error", err)
			}
		}
	}

	bus.Close()
	logger.Info("server shutdown")
}

func initStorage(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (storage.TxBeginner, storage.Repositories, func()) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.DB{}, memory.New(), func() {}
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DB.DSN)
		if err != nil {
			panic("failed to connect database: " + err.Error())
		}
		return db, postgres.Repositories{Logger: logger}, func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}
	default:
		panic("invalid storage driver")
	}
}

func registerHandlers(
	bus *messagebus.MessageBus,
	logger *slog.Logger,
	m *metrics.Manager,
	trainerService *trainerapp.Service,
) {
	bus.Register(user.EventCreated, func(event domain.Event) error {
		e := event.(user.CreatedEvent)
		m.CounterSignUps.Inc()
		logger.Info("user created", "user_id", e.UserID)
		return nil
	})

	bus.Register(user.EventNewLogin, func(event domain.Event) error {
		e := event.(user.LoginEvent)
		m.CounterLogins.WithLabelValues(string(e.Role)).Inc()
		logger.Info("new login",
			"user_id", e.UserID,
			"browser", e.Device.Browser,
			"os", e.Device.OS,
			"ip", e.Device.IPAddress,
		)
		return nil
	})

	bus.Register(ledger.EventCreated, func(event domain.Event) error {
		e := event.(ledger.CreatedEvent)
		m.CounterLedgersCreated.Inc()
		trainerService.Invalidate()
		logger.Debug("ledger created", "user_id", e.UserID, "height", e.Height)
		return nil
	})

	bus.Register(ledger.EventEntryAdded, func(event domain.Event) error {
		m.CounterWeightEntries.Inc()
		trainerService.Invalidate()
		return nil
	})
}

func initLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.Log.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		})
	}

	var handler slog.Handler
	switch cfg.App.Env {
	case config.Development:
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		})
	case config.Production:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelInfo,
		})
	default:
		panic("invalid env")
	}

	return slog.New(handler)
}
