// Package web wires the portal's HTTP surface: page handlers, session
// middleware, and observability endpoints.
package web

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/healthconnect/portal/internal/core/domain"
	"github.com/healthconnect/portal/internal/core/ports"
	"github.com/healthconnect/portal/internal/core/service"
	"github.com/healthconnect/portal/internal/web/handler"
	"github.com/healthconnect/portal/internal/web/middleware"
)

// RouterConfig carries everything the web layer depends on.
type RouterConfig struct {
	Session ports.Session
	Client  ports.BackendClient
	Store   ports.TokenStore
	Users   *service.UserList
	Backend handler.Pinger

	// SessionSecret signs the browser session cookie; SecureCookies
	// should be true behind TLS.
	SessionSecret string
	SecureCookies bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Renderer = handler.NewRenderer()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("portal"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(cfg.Session, cfg.SessionSecret, cfg.SecureCookies)
	signupHandler := handler.NewSignupHandler(cfg.Client, cfg.Session, cfg.Store, cfg.SessionSecret, cfg.SecureCookies)
	dashboardHandler := handler.NewDashboardHandler(cfg.Session, cfg.Client)
	usersHandler := handler.NewUsersHandler(cfg.Users)
	healthHandler := handler.NewHealthHandler(cfg.Backend)

	// --- Public routes ---
	e.GET("/", func(c echo.Context) error {
		if cfg.Session.User() != nil {
			return c.Redirect(http.StatusSeeOther, "/dashboard")
		}
		return c.Redirect(http.StatusSeeOther, "/login")
	})
	e.GET("/login", authHandler.LoginPage)
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)
	e.GET("/signup", signupHandler.SignupPage)
	e.POST("/signup", signupHandler.Signup)

	// --- Probes and metrics (no auth required) ---
	e.GET("/healthz", healthHandler.Liveness)
	e.GET("/healthz/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Authenticated pages ---
	authed := e.Group("", middleware.RequireSession(cfg.SessionSecret, cfg.Session))
	authed.GET("/dashboard", dashboardHandler.Dashboard)
	authed.GET("/profile", dashboardHandler.Profile)

	// Only doctors may browse the user listing.
	doctors := authed.Group("/users", middleware.RequireRole(domain.RoleDoctor))
	doctors.GET("", usersHandler.Users)
	doctors.GET("/export.csv", usersHandler.Export)

	return e
}
