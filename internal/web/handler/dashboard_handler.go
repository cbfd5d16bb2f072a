package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthconnect/portal/internal/core/domain"
	"github.com/healthconnect/portal/internal/core/ports"
)

// DashboardHandler serves the role-routed dashboard and the profile page.
type DashboardHandler struct {
	session ports.Session
	client  ports.BackendClient
}

func NewDashboardHandler(session ports.Session, client ports.BackendClient) *DashboardHandler {
	return &DashboardHandler{session: session, client: client}
}

type dashboardPageData struct {
	User    *domain.User
	Payload ports.Dashboard
	Error   string
}

// Dashboard fetches the payload matching the user's role and renders it
// loosely. A fetch failure renders the page with the error message; the
// session is not affected.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	user := h.session.User()
	if user == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	ctx := c.Request().Context()
	var payload ports.Dashboard
	var err error
	switch user.UserType {
	case domain.RoleDoctor:
		payload, err = h.client.DoctorDashboard(ctx)
	default:
		payload, err = h.client.PatientDashboard(ctx)
	}

	data := dashboardPageData{User: user, Payload: payload}
	if err != nil {
		data.Error = err.Error()
	}
	return c.Render(http.StatusOK, "dashboard.html", data)
}

type profilePageData struct {
	User *domain.User
}

func (h *DashboardHandler) Profile(c echo.Context) error {
	user := h.session.User()
	if user == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	return c.Render(http.StatusOK, "profile.html", profilePageData{User: user})
}
