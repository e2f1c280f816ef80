package config

import (
	"errors"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"time"
)

var (
	ErrConfigNotLoaded = errors.New("config not loaded")
)

type Environment string

const (
	Production  Environment = "prod"
	Development Environment = "dev"
)

func (e *Environment) SetValue(s string) error {
	*e = Environment(s)
	if *e != Production && *e != Development {
		return configNotLoadedErr(`only "prod" and "dev" environments are allowed`)
	}
	return nil
}

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

func (d *Driver) SetValue(s string) error {
	*d = Driver(s)
	if *d != DriverPostgres && *d != DriverMemory {
		return configNotLoadedErr(`only "postgres" and "memory" storage drivers are allowed`)
	}
	return nil
}

type Config struct {
	App struct {
		Env Environment `yaml:"env" env:"ENV" env-required:""`
	} `yaml:"app" env-prefix:"APP_" env-required:""`

	Server struct {
		Host string `yaml:"host" env:"HOST" env-default:"localhost"`
		Port int    `yaml:"port" env:"PORT" env-default:"8080"`
	} `yaml:"server" env-prefix:"SERVER_"`

	DB struct {
		Driver Driver `yaml:"driver" env:"DRIVER" env-default:"postgres"`
		DSN    string `yaml:"dsn" env:"DSN"`
	} `yaml:"db" env-prefix:"DB_"`

	JWT struct {
		AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"24h"`
		Secret         string        `yaml:"secret" env:"SECRET" env-required:""`
	} `yaml:"jwt" env-prefix:"JWT_" env-required:""`

	Cache struct {
		TrainerTTL time.Duration `yaml:"trainer_ttl" env:"TRAINER_TTL" env-default:"30s"`
		SizeMB     int           `yaml:"size_mb" env:"SIZE_MB" env-default:"64"`
	} `yaml:"cache" env-prefix:"CACHE_"`

	Log struct {
		File       string `yaml:"file" env:"FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB" env-default:"100"`
		MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" env-default:"5"`
		MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS" env-default:"28"`
	} `yaml:"log" env-prefix:"LOG_"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"ENABLED" env-default:"true"`
		Path    string `yaml:"path" env:"PATH" env-default:"/metrics"`
	} `yaml:"metrics" env-prefix:"METRICS_"`
}

func Load(filePath string) (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadConfig(filePath, cfg); err != nil {
		return nil, configNotLoadedErr("config not loaded: %w", err)
	}

	// Values read from YAML bypass SetValue.
	if err := cfg.App.Env.SetValue(string(cfg.App.Env)); err != nil {
		return nil, err
	}
	if err := cfg.DB.Driver.SetValue(string(cfg.DB.Driver)); err != nil {
		return nil, err
	}

	if cfg.DB.Driver == DriverPostgres && cfg.DB.DSN == "" {
		return nil, configNotLoadedErr("db.dsn is required for the postgres driver")
	}

	return cfg, nil
}

func MustLoad(filePath string) *Config {
	cfg, err := Load(filePath)
	if err != nil {
		panic(err)
	}
	return cfg
}

func configNotLoadedErr(format string, args ...any) error {
	return errors.Join(fmt.Errorf(format, args...), ErrConfigNotLoaded)
}
