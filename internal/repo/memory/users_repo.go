package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/memberhub/internal/domain/user"
	"github.com/geocoder89/memberhub/internal/repo/postgres"
	"github.com/google/uuid"
)

// UsersRepo is an in-memory credential store with the same error
// contract as the postgres one. Handler tests use it so they do not
// need a database.
type UsersRepo struct {
	mu    sync.Mutex
	users map[string]user.User // keyed by id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{users: make(map[string]user.User)}
}

func (r *UsersRepo) Create(ctx context.Context, fields postgres.CreateUserFields, passwordHash string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == fields.Username {
			return user.User{}, postgres.ErrUsernameTaken
		}
		if existing.Email == fields.Email {
			return user.User{}, postgres.ErrEmailTaken
		}
	}

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

	r.users[u.ID] = u
	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, postgres.ErrUserNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}
	return u, nil
}

func (r *UsersRepo) ListAfter(ctx context.Context, afterCreatedAt time.Time, afterID string, limit int) ([]user.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	r.mu.Lock()
	all := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	out := make([]user.User, 0, limit)
	for _, u := range all {
		if !afterCreatedAt.IsZero() {
			if u.CreatedAt.Before(afterCreatedAt) {
				continue
			}
			if u.CreatedAt.Equal(afterCreatedAt) && u.ID <= afterID {
				continue
			}
		}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *UsersRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}
