package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/memberhub/internal/domain/user"
	"github.com/geocoder89/memberhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already in use")
)

type CreateUserFields struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Role      string
}

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create inserts a new user. Uniqueness of username and email is enforced
// by the database, so two racing creates for the same username resolve to
// exactly one row; the loser sees ErrUsernameTaken / ErrEmailTaken.
func (r *UsersRepo) Create(ctx context.Context, fields CreateUserFields, passwordHash string) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		FirstName:    fields.FirstName,
		LastName:     fields.LastName,
		Username:     fields.Username,
		Email:        fields.Email,
		PasswordHash: passwordHash,
		Role:         fields.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if u.Role == "" {
		u.Role = user.RoleUser
	}

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, first_name, last_name, username, email, password_hash, role, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			u.ID, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return user.User{}, ErrEmailTaken
			}
			return user.User{}, ErrUsernameTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_username", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, first_name, last_name, username, email, password_hash, role, created_at, updated_at
			 FROM users
			 WHERE username = $1`,
			username,
		).Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, first_name, last_name, username, email, password_hash, role, created_at, updated_at
			 FROM users
			 WHERE id = $1`,
			id,
		).Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// ListAfter returns up to limit users created after the given cursor position,
// oldest first. A zero afterCreatedAt means "from the beginning".
func (r *UsersRepo) ListAfter(ctx context.Context, afterCreatedAt time.Time, afterID string, limit int) ([]user.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var rows pgx.Rows
	var err error

	err = r.observe("users.list", func() error {
		if afterCreatedAt.IsZero() {
			rows, err = r.pool.Query(ctx,
				`SELECT id, first_name, last_name, username, email, password_hash, role, created_at, updated_at
				 FROM users
				 ORDER BY created_at, id
				 LIMIT $1`, limit)
			return err
		}

		rows, err = r.pool.Query(ctx,
			`SELECT id, first_name, last_name, username, email, password_hash, role, created_at, updated_at
			 FROM users
			 WHERE (created_at, id) > ($1, $2)
			 ORDER BY created_at, id
			 LIMIT $3`, afterCreatedAt, afterID, limit)
		return err
	})

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.User, 0, limit)

	for rows.Next() {
		var u user.User

		err = rows.Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}

	return out, rows.Err()
}

func (r *UsersRepo) Count(ctx context.Context) (int, error) {
	var n int

	err := r.observe("users.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	})

	return n, err
}
