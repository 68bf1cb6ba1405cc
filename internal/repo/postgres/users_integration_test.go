package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/memberhub/internal/db"
	"github.com/geocoder89/memberhub/internal/domain/user"
	"github.com/geocoder89/memberhub/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// These tests need a real database. Point TEST_DATABASE_URL at a
// throwaway postgres instance to run them.
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if err := db.Migrate(dsn); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	pool, err := db.NewPool(dsn)
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = pool.Exec(ctx, `DELETE FROM users`)
		pool.Close()
	})

	return pool
}

func TestIntegrationCreateAndGet(t *testing.T) {
	pool := integrationPool(t)
	repo := postgres.NewUsersRepo(pool, nil)
	ctx := context.Background()

	created, err := repo.Create(ctx, postgres.CreateUserFields{
		FirstName: "Alice",
		LastName:  "Smith",
		Username:  "it_alice",
		Email:     "it_alice@x.com",
	}, "$2a$10$fakehashfakehashfakehash")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if created.Role != user.RoleUser {
		t.Fatalf("default role = %q, want %q", created.Role, user.RoleUser)
	}

	byName, err := repo.GetByUsername(ctx, "it_alice")
	if err != nil {
		t.Fatalf("get by username failed: %v", err)
	}
	if byName.ID != created.ID {
		t.Fatalf("lookup returned wrong row: %s vs %s", byName.ID, created.ID)
	}

	byID, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if byID.Email != "it_alice@x.com" {
		t.Fatalf("email mismatch: %s", byID.Email)
	}
}

func TestIntegrationDuplicateConstraints(t *testing.T) {
	pool := integrationPool(t)
	repo := postgres.NewUsersRepo(pool, nil)
	ctx := context.Background()

	fields := postgres.CreateUserFields{
		FirstName: "Alice",
		LastName:  "Smith",
		Username:  "it_dup",
		Email:     "it_dup@x.com",
	}

	if _, err := repo.Create(ctx, fields, "hash"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err := repo.Create(ctx, fields, "hash")
	if !errors.Is(err, postgres.ErrUsernameTaken) {
		t.Fatalf("duplicate username: got %v, want postgres.ErrUsernameTaken", err)
	}

	fields.Username = "it_dup2"
	_, err = repo.Create(ctx, fields, "hash")
	if !errors.Is(err, postgres.ErrEmailTaken) {
		t.Fatalf("duplicate email: got %v, want postgres.ErrEmailTaken", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestIntegrationListAfterPaginates(t *testing.T) {
	pool := integrationPool(t)
	repo := postgres.NewUsersRepo(pool, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, postgres.CreateUserFields{
			FirstName: "User",
			LastName:  fmt.Sprintf("%d", i),
			Username:  fmt.Sprintf("it_page_%d", i),
			Email:     fmt.Sprintf("it_page_%d@x.com", i),
		}, "hash")
		if err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	page1, err := repo.ListAfter(ctx, time.Time{}, "", 3)
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(page1) != 3 {
		t.Fatalf("first page has %d rows, want 3", len(page1))
	}

	last := page1[len(page1)-1]
	page2, err := repo.ListAfter(ctx, last.CreatedAt, last.ID, 3)
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("second page has %d rows, want 2", len(page2))
	}

	seen := map[string]bool{}
	for _, u := range append(page1, page2...) {
		if seen[u.ID] {
			t.Fatalf("row %s appeared on both pages", u.ID)
		}
		seen[u.ID] = true
	}
}
