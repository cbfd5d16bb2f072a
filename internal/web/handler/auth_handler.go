package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthconnect/portal/internal/core/ports"
	"github.com/healthconnect/portal/internal/web/middleware"
)

// AuthHandler serves the login page and the login/logout actions.
type AuthHandler struct {
	session ports.Session
	secret  string
	secure  bool
}

func NewAuthHandler(session ports.Session, secret string, secure bool) *AuthHandler {
	return &AuthHandler{session: session, secret: secret, secure: secure}
}

type loginPageData struct {
	Username string
	Error    string
}

// LoginPage renders the login form. An already authenticated browser is
// sent straight to its dashboard.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	if h.session.User() != nil {
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return c.Render(http.StatusOK, "login.html", loginPageData{})
}

// Login authenticates against the backend. Failures re-render the form
// with the backend's message; the session is left untouched.
func (h *AuthHandler) Login(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	if err := h.session.Login(c.Request().Context(), username, password); err != nil {
		return c.Render(http.StatusUnauthorized, "login.html", loginPageData{
			Username: username,
			Error:    err.Error(),
		})
	}

	user := h.session.User()
	if user == nil {
		// Token stored but the follow-up user fetch failed and cleared
		// the session again.
		return c.Render(http.StatusBadGateway, "login.html", loginPageData{
			Username: username,
			Error:    "failed to fetch user",
		})
	}

	cookie, err := middleware.NewSessionCookie(h.secret, user.Username, user.UserType, h.secure)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)

	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Logout clears the process session and expires the browser cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.session.Logout(c.Request().Context()); err != nil {
		return err
	}
	c.SetCookie(middleware.ClearSessionCookie())
	return c.Redirect(http.StatusSeeOther, "/login")
}
