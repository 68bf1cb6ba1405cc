package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/memberhub/internal/cache"
	"github.com/geocoder89/memberhub/internal/domain/user"
	"github.com/geocoder89/memberhub/internal/repo/postgres"
	"github.com/geocoder89/memberhub/internal/session"
	"github.com/gin-gonic/gin"
)

const SessionCookieName = "session_token"

// Small interfaces so tests can fake the stores.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// CurrentUser resolves the session cookie to a user on every request
// and stashes it on the gin context. Anonymous requests pass through
// untouched; only a broken backing store aborts the request.
type CurrentUser struct {
	sessions  SessionResolver
	users     UserLoader
	userCache *cache.Cache[user.User]
	log       *slog.Logger
}

func NewCurrentUser(sessions SessionResolver, users UserLoader, userCache *cache.Cache[user.User], log *slog.Logger) *CurrentUser {
	return &CurrentUser{
		sessions:  sessions,
		users:     users,
		userCache: userCache,
		log:       log,
	}
}

func (m *CurrentUser) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)

		if err != nil || token == "" {
			c.Next()
			return
		}

		// Session validity itself is never cached: Resolve hits the
		// store on every request so logout takes effect immediately.
		userID, err := m.sessions.Resolve(c.Request.Context(), token)

		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				// stale cookie from an expired or logged-out session
				c.Next()
				return
			}

			m.log.ErrorContext(c.Request.Context(), "session resolve failed", "err", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		u, err := m.loadUser(c, userID)

		if err != nil {
			if errors.Is(err, postgres.ErrUserNotFound) {
				// session points at a user that no longer exists
				c.Next()
				return
			}

			m.log.ErrorContext(c.Request.Context(), "current user lookup failed", "err", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(ctxUserKey, u)
		c.Next()
	}
}

func (m *CurrentUser) loadUser(c *gin.Context, userID string) (user.User, error) {
	if m.userCache != nil {
		if u, ok := m.userCache.Get(userID); ok {
			return u, nil
		}
	}

	u, err := m.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		return user.User{}, err
	}

	if m.userCache != nil {
		m.userCache.Set(userID, u)
	}
	return u, nil
}

// UserFrom returns the authenticated user for this request, if any.
func UserFrom(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
