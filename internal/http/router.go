package http

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"time"

	"github.com/geocoder89/memberhub/internal/cache"
	"github.com/geocoder89/memberhub/internal/config"
	"github.com/geocoder89/memberhub/internal/domain/user"
	"github.com/geocoder89/memberhub/internal/forms"
	"github.com/geocoder89/memberhub/internal/http/handlers"
	"github.com/geocoder89/memberhub/internal/http/middlewares"
	"github.com/geocoder89/memberhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

//go:embed templates/*.html
var templateFS embed.FS

// UserRepo is everything the HTTP layer needs from the credential
// store. Both the postgres and the in-memory repo satisfy it.
type UserRepo interface {
	handlers.UserStore
	handlers.UserLister
	middlewares.UserLoader
}

type SessionManager interface {
	handlers.SessionStore
	middlewares.SessionResolver
}

// Deps carries everything the router wires together. All dependencies
// are constructed at startup and passed in; there is no ambient state.
type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Users    UserRepo
	Sessions SessionManager
	Welcome  handlers.WelcomeEnqueuer
	Registry *prometheus.Registry
	Prom     *observability.Prom

	PingDB    func(context.Context) error
	PingRedis func(context.Context) error
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(otelgin.Middleware("memberhub"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	userCache := cache.New[user.User](5 * time.Second)
	currentUser := middlewares.NewCurrentUser(d.Sessions, d.Users, userCache, d.Log)
	r.Use(currentUser.Middleware())

	// health
	health := handlers.NewHealthHandler(map[string]func(context.Context) error{
		"db":    d.PingDB,
		"redis": d.PingRedis,
	})
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// pages
	pages := handlers.NewPagesHandler()
	r.GET("/", pages.Home)
	r.GET("/home", pages.Home)
	r.GET("/about", pages.About)

	// auth flow
	validator := forms.NewValidator()
	authHandler := handlers.NewAuthHandler(d.Users, d.Sessions, validator, d.Welcome, d.Cfg, d.Log)

	// brute-force guard on the credential-bearing POSTs
	authLimiter := middlewares.NewRateLimiter(10, time.Minute)

	auth := r.Group("/auth")
	auth.GET("/register", authHandler.ShowRegister)
	auth.POST("/register", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Register)
	auth.GET("/login", authHandler.ShowLogin)
	auth.POST("/login", authLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	auth.GET("/logout", authHandler.Logout)
	auth.GET("/account", middlewares.RequireAuth(), authHandler.Account)

	// JSON API
	api := handlers.NewAPIHandler()
	r.GET("/api/v1/hello/", api.Hello)

	adminHandler := handlers.NewAdminHandler(d.Users)
	admin := r.Group("/api/v1/admin", middlewares.RequireRole(user.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)

	// websocket echo
	ws := handlers.NewWSHandler(d.Log)
	r.GET("/ws", ws.Serve)

	return r
}
