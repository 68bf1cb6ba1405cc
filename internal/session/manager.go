package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/geocoder89/memberhub/internal/observability"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const keyPrefix = "session:"

// Manager issues and resolves opaque browser session tokens. The raw
// token only ever travels in the cookie; redis stores it keyed by an
// HMAC of the token, so a dump of the store cannot be replayed as
// cookies.
type Manager struct {
	rdb         *redis.Client
	secret      []byte
	ttl         time.Duration
	rememberTTL time.Duration
	prom        *observability.Prom
}

func NewManager(rdb *redis.Client, secret string, ttl, rememberTTL time.Duration, prom *observability.Prom) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if rememberTTL <= 0 {
		rememberTTL = 30 * 24 * time.Hour
	}

	return &Manager{
		rdb:         rdb,
		secret:      []byte(secret),
		ttl:         ttl,
		rememberTTL: rememberTTL,
		prom:        prom,
	}
}

// TTL reports the persistence duration a session created with the given
// remember flag will get. Handlers use it to size the cookie.
func (m *Manager) TTL(remember bool) time.Duration {
	if remember {
		return m.rememberTTL
	}
	return m.ttl
}

// Create writes a new session for the user and returns the raw token.
// The redis SET is the commit point: once Create returns, Resolve sees
// the session.
func (m *Manager) Create(ctx context.Context, userID string, remember bool) (string, error) {
	raw := make([]byte, 32)

	if _, err := rand.Read(raw); err != nil {
		m.count("create", "error")
		return "", err
	}

	token := base64.RawURLEncoding.EncodeToString(raw)

	err := m.rdb.Set(ctx, m.key(token), userID, m.TTL(remember)).Err()

	if err != nil {
		m.count("create", "error")
		return "", err
	}

	m.count("create", "ok")
	return token, nil
}

// Resolve maps a token back to the owning user id, or ErrSessionNotFound
// for unknown and expired tokens.
func (m *Manager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		m.count("resolve", "miss")
		return "", ErrSessionNotFound
	}

	userID, err := m.rdb.Get(ctx, m.key(token)).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			m.count("resolve", "miss")
			return "", ErrSessionNotFound
		}
		m.count("resolve", "error")
		return "", err
	}

	m.count("resolve", "ok")
	return userID, nil
}

// Destroy invalidates a token. Destroying an absent session is a no-op,
// so repeated logouts do not error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	err := m.rdb.Del(ctx, m.key(token)).Err()

	if err != nil {
		m.count("destroy", "error")
		return err
	}

	m.count("destroy", "ok")
	return nil
}

func (m *Manager) key(token string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(token))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (m *Manager) count(op, result string) {
	if m.prom != nil {
		m.prom.SessionOps.WithLabelValues(op, result).Inc()
	}
}
