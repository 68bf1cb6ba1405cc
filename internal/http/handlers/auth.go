package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/memberhub/internal/config"
	"github.com/geocoder89/memberhub/internal/domain/user"
	"github.com/geocoder89/memberhub/internal/forms"
	"github.com/geocoder89/memberhub/internal/http/flash"
	"github.com/geocoder89/memberhub/internal/http/middlewares"
	"github.com/geocoder89/memberhub/internal/queue"
	"github.com/geocoder89/memberhub/internal/repo/postgres"
	"github.com/geocoder89/memberhub/internal/security"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake the stores.
type UserStore interface {
	Create(ctx context.Context, fields postgres.CreateUserFields, passwordHash string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, userID string, remember bool) (string, error)
	Destroy(ctx context.Context, token string) error
	TTL(remember bool) time.Duration
}

type WelcomeEnqueuer interface {
	Enqueue(ctx context.Context, t queue.JobType, payload any) (queue.Job, error)
}

type AuthHandler struct {
	users     UserStore
	sessions  SessionStore
	validator *forms.Validator
	welcome   WelcomeEnqueuer
	cfg       config.Config
	log       *slog.Logger
}

func NewAuthHandler(users UserStore, sessions SessionStore, validator *forms.Validator, welcome WelcomeEnqueuer, cfg config.Config, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		sessions:  sessions,
		validator: validator,
		welcome:   welcome,
		cfg:       cfg,
		log:       log,
	}
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	if _, ok := middlewares.UserFrom(c); ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	renderPage(c, http.StatusOK, "register.html", gin.H{"Form": forms.RegistrationForm{}})
}

func (h *AuthHandler) Register(c *gin.Context) {
	if _, ok := middlewares.UserFrom(c); ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	var form forms.RegistrationForm

	if err := c.ShouldBind(&form); err != nil {
		renderPage(c, http.StatusBadRequest, "register.html", gin.H{
			"Form":  form,
			"Error": "Could not read the submitted form.",
		})
		return
	}

	fieldErrs, err := h.validator.Validate(form)

	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "registration validation broke", "err", err)
		RespondInternal(c, "Could not process registration")
		return
	}

	if len(fieldErrs) > 0 {
		renderPage(c, http.StatusUnprocessableEntity, "register.html", gin.H{
			"Form":        form,
			"FieldErrors": fieldErrorMap(fieldErrs),
		})
		return
	}

	hash, err := security.HashPassword(form.Password)

	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "password hash failed", "err", err)
		RespondInternal(c, "Could not create account")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, postgres.CreateUserFields{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Username:  form.Username,
		Email:     form.Email,
		Role:      user.RoleUser,
	}, hash)

	if err != nil {
		if errors.Is(err, postgres.ErrUsernameTaken) || errors.Is(err, postgres.ErrEmailTaken) {
			renderPage(c, http.StatusUnprocessableEntity, "register.html", gin.H{
				"Form":  form,
				"Error": err.Error(),
			})
			return
		}

		h.log.ErrorContext(c.Request.Context(), "user create failed", "err", err)
		RespondInternal(c, "Could not create account")
		return
	}

	h.enqueueWelcome(c, u)

	flash.Set(c, flash.LevelSuccess, "You have successfully registered. Please sign in.")
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if _, ok := middlewares.UserFrom(c); ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	renderPage(c, http.StatusOK, "login.html", gin.H{
		"Form": forms.LoginForm{Next: safeNext(c.Query("next"))},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	if _, ok := middlewares.UserFrom(c); ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	var form forms.LoginForm

	if err := c.ShouldBind(&form); err != nil {
		renderPage(c, http.StatusBadRequest, "login.html", gin.H{
			"Form":  form,
			"Error": "Could not read the submitted form.",
		})
		return
	}

	form.Next = safeNext(form.Next)

	fieldErrs, err := h.validator.Validate(form)

	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "login validation broke", "err", err)
		RespondInternal(c, "Could not process login")
		return
	}

	if len(fieldErrs) > 0 {
		renderPage(c, http.StatusUnprocessableEntity, "login.html", gin.H{
			"Form":        form,
			"FieldErrors": fieldErrorMap(fieldErrs),
		})
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByUsername(cctx, form.Username)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			h.respondInvalidCredentials(c, form)
			return
		}

		h.log.ErrorContext(c.Request.Context(), "login lookup failed", "err", err)
		RespondInternal(c, "Could not process login")
		return
	}

	if err := security.CheckPassword(foundUser.PasswordHash, form.Password); err != nil {
		h.respondInvalidCredentials(c, form)
		return
	}

	// Valid credentials always establish a session, whether or not a
	// next target is present.
	token, err := h.sessions.Create(cctx, foundUser.ID, form.Remember)

	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "session create failed", "err", err)
		RespondInternal(c, "Could not create session")
		return
	}

	h.setSessionCookie(c, token, form.Remember)

	flash.Set(c, flash.LevelSuccess, "You have successfully signed in.")

	if form.Next != "" {
		c.Redirect(http.StatusSeeOther, form.Next)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := c.Cookie(middlewares.SessionCookieName)

	if err == nil && token != "" {
		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		// destroying an already-gone session is a no-op
		if err := h.sessions.Destroy(cctx, token); err != nil {
			h.log.ErrorContext(c.Request.Context(), "session destroy failed", "err", err)
		}
	}

	h.clearSessionCookie(c)
	flash.Set(c, flash.LevelInfo, "You have been logged out.")
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) Account(c *gin.Context) {
	// RequireAuth guarantees a user here.
	u, ok := middlewares.UserFrom(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/auth/login?next=%2Fauth%2Faccount")
		return
	}

	renderPage(c, http.StatusOK, "account.html", gin.H{"User": u})
}

// helpers

func (h *AuthHandler) respondInvalidCredentials(c *gin.Context, form forms.LoginForm) {
	form.Password = ""

	// One generic message for both unknown username and bad password,
	// so the form cannot be used to enumerate accounts.
	renderPage(c, http.StatusUnauthorized, "login.html", gin.H{
		"Form":  form,
		"Error": "Invalid username or password.",
	})
}

func (h *AuthHandler) enqueueWelcome(c *gin.Context, u user.User) {
	if h.welcome == nil {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	_, err := h.welcome.Enqueue(cctx, queue.JobWelcomeEmail, queue.WelcomeEmailPayload{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.FullName(),
		Username: u.Username,
	})

	// Registration already committed; a lost welcome mail is not worth
	// failing the request over.
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "welcome enqueue failed", "err", err, "user_id", u.ID)
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, remember bool) {
	secure := h.cfg.Env == "prod"

	// Without remember-me the cookie lives only as long as the browser
	// session; the server-side TTL still caps it.
	maxAge := 0
	if remember {
		maxAge = int(h.sessions.TTL(true).Seconds())
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middlewares.SessionCookieName,
		token,
		maxAge,
		"/",
		"",
		secure,
		true, // HttpOnly
	)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	secure := h.cfg.Env == "prod"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middlewares.SessionCookieName,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}

func fieldErrorMap(fieldErrs []forms.FieldError) map[string]string {
	m := make(map[string]string, len(fieldErrs))

	for _, fe := range fieldErrs {
		// first error per field wins
		if _, ok := m[fe.Field]; !ok {
			m[fe.Field] = fe.Message
		}
	}
	return m
}

// safeNext keeps post-login redirects on this site. Anything that is
// not a plain local path is discarded.
func safeNext(next string) string {
	if next == "" {
		return ""
	}
	if !strings.HasPrefix(next, "/") {
		return ""
	}
	// "//host" and "/\host" are scheme-relative escapes
	if strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}
