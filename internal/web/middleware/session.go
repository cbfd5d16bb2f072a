package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/healthconnect/portal/internal/core/ports"
)

// CookieName is the browser session cookie. Its value is an HS256 JWT
// binding the browser to the portal's process session.
const CookieName = "hc_session"

const sessionTTL = 24 * time.Hour

// NewSessionCookie mints the signed session cookie for an authenticated
// user.
func NewSessionCookie(secret, username, userType string, secure bool) (*http.Cookie, error) {
	claims := jwt.MapClaims{
		"username":  username,
		"user_type": userType,
		"exp":       time.Now().Add(sessionTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearSessionCookie returns an expired cookie that removes the session
// cookie from the browser.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
}

// RequireSession validates the session cookie and requires the process
// session to hold an authenticated user; otherwise the browser is sent
// to the login page. Valid claims are injected into the echo context.
func RequireSession(secret string, session ports.Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !tkn.Valid {
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			// The cookie only proves this browser logged in; the session
			// itself may have been torn down by a failed refresh.
			if session.User() == nil {
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			c.Set("username", claims["username"])
			c.Set("user_type", claims["user_type"])

			return next(c)
		}
	}
}

// RequireRole gates a route to the given roles.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("user_type").(string)
			if _, ok := allowed[role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
