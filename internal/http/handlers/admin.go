package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/memberhub/internal/domain/user"
	"github.com/geocoder89/memberhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserLister interface {
	ListAfter(ctx context.Context, afterCreatedAt time.Time, afterID string, limit int) ([]user.User, error)
	Count(ctx context.Context) (int, error)
}

// AdminHandler is the JSON replacement for a point-and-click admin
// panel: a cursor-paginated listing of every account.
type AdminHandler struct {
	users UserLister
}

func NewAdminHandler(users UserLister) *AdminHandler {
	return &AdminHandler{users: users}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit := 25

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			RespondBadRequest(c, "limit must be an integer between 1 and 100", nil)
			return
		}
		limit = n
	}

	var afterCreatedAt time.Time
	var afterID string

	if raw := c.Query("cursor"); raw != "" {
		cur, err := utils.DecodeUserCursor(raw)
		if err != nil {
			RespondBadRequest(c, "invalid cursor", nil)
			return
		}
		afterCreatedAt = cur.CreatedAt
		afterID = cur.ID
	}

	ctx := c.Request.Context()

	users, err := h.users.ListAfter(ctx, afterCreatedAt, afterID, limit)

	if err != nil {
		RespondInternal(c, "Could not list users")
		return
	}

	total, err := h.users.Count(ctx)

	if err != nil {
		RespondInternal(c, "Could not list users")
		return
	}

	var nextCursor *string

	if len(users) == limit {
		last := users[len(users)-1]
		encoded, err := utils.EncodeUserCursor(last.CreatedAt, last.ID)
		if err == nil {
			nextCursor = &encoded
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"total":      total,
		"nextCursor": nextCursor,
	})
}
