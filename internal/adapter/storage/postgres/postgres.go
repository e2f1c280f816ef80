// Package postgres wires the PostgreSQL repositories behind the
// storage.Repositories seam.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	ledgerstorage "github.com/burenotti/go_bmi_backend/internal/adapter/storage/ledgers"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage/userstorage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"log/slog"
	"time"
)

// Open connects through the pgx stdlib driver, pings and migrates.
func Open(ctx context.Context, dsn string) (*storage.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(pingCtx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &storage.DB{DB: db}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id       TEXT PRIMARY KEY,
		email         TEXT NOT NULL CONSTRAINT users_email_key UNIQUE,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'USER' CHECK (role IN ('USER', 'TRAINER')),
		height        DOUBLE PRECISION CHECK (height > 0),
		weight        DOUBLE PRECISION CHECK (weight > 0),
		age           INTEGER CHECK (age > 0 AND age < 150),
		gender        TEXT NOT NULL DEFAULT '',
		goals         TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bmi_ledgers (
		user_id    TEXT PRIMARY KEY REFERENCES users (user_id),
		height     DOUBLE PRECISION NOT NULL CHECK (height > 0),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weight_entries (
		seq         BIGSERIAL PRIMARY KEY,
		entry_id    TEXT NOT NULL UNIQUE,
		user_id     TEXT NOT NULL CONSTRAINT weight_entries_user_id_fkey REFERENCES bmi_ledgers (user_id),
		weight      DOUBLE PRECISION NOT NULL CHECK (weight > 0),
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_weight_entries_user_seq ON weight_entries (user_id, seq)`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS bench_press DOUBLE PRECISION CHECK (bench_press > 0)`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS squat DOUBLE PRECISION CHECK (squat > 0)`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS deadlift DOUBLE PRECISION CHECK (deadlift > 0)`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

type Repositories struct {
	Logger *slog.Logger
}

func (r Repositories) Users(db storage.DBContext) storage.UserRepository {
	return userstorage.NewPostgresStorage(db, r.Logger)
}

func (r Repositories) Ledgers(db storage.DBContext) storage.LedgerRepository {
	return ledgerstorage.NewPostgresStorage(db)
}
