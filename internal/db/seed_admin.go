package db

import (
	"context"
	"errors"

	"github.com/geocoder89/memberhub/internal/config"
	"github.com/geocoder89/memberhub/internal/domain/user"
	"github.com/geocoder89/memberhub/internal/repo/postgres"
	"github.com/geocoder89/memberhub/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser creates the configured admin account if it is missing.
// Safe to run on every startup.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, cfg.AdminUsername).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	repo := postgres.NewUsersRepo(pool, nil)

	_, err = repo.Create(ctx, postgres.CreateUserFields{
		FirstName: "Site",
		LastName:  "Admin",
		Username:  cfg.AdminUsername,
		Email:     cfg.AdminEmail,
		Role:      user.RoleAdmin,
	}, hash)

	// A concurrent boot may have seeded it between the check and the insert.
	if errors.Is(err, postgres.ErrUsernameTaken) || errors.Is(err, postgres.ErrEmailTaken) {
		return nil
	}

	return err
}
