package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account_service/internal/model"
	"account_service/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ConnectDB establishes a connection pool to PostgreSQL, retrying while the
// database comes up.
func ConnectDB(cfg *Config, log *zap.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(context.Background(), cfg.DSN())
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Info("connected to PostgreSQL")
				return pool, nil
			}
		}
		log.Warn("failed to connect to database, retrying",
			zap.Int("attempt", i+1), zap.Int("max", maxRetries), zap.Error(err))
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// AutoMigrate creates tables if they don't exist
func AutoMigrate(db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS roles (
		id SERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		phone_number TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role_id INTEGER NOT NULL DEFAULT 1 REFERENCES roles(id)
	);

	CREATE INDEX IF NOT EXISTS idx_users_role_id ON users(role_id);
	`
	if _, err := db.Exec(context.Background(), sql); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}
	return nil
}

// Seed inserts the base roles and, if configured, an initial admin account.
// It is idempotent across restarts.
func Seed(ctx context.Context, db *pgxpool.Pool, cfg *Config, log *zap.Logger) error {
	_, err := db.Exec(ctx,
		`INSERT INTO roles (id, name) VALUES ($1, $2), ($3, $4) ON CONFLICT (id) DO NOTHING`,
		model.RoleIDUser, model.RoleNameUser, model.RoleIDAdmin, model.RoleNameAdmin)
	if err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}

	if cfg.InitialAdminEmail == "" || cfg.InitialAdminPassword == "" {
		return nil
	}

	var existingID int
	err = db.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.InitialAdminEmail).Scan(&existingID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to check initial admin: %w", err)
	}

	hash, err := utils.HashPassword(cfg.InitialAdminPassword)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx,
		`INSERT INTO users (phone_number, first_name, last_name, email, password_hash, role_id)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		"+10000000000", "Admin", "Admin", cfg.InitialAdminEmail, hash, model.RoleIDAdmin)
	if err != nil {
		return fmt.Errorf("failed to seed initial admin: %w", err)
	}
	log.Info("initial admin account created", zap.String("email", cfg.InitialAdminEmail))
	return nil
}
