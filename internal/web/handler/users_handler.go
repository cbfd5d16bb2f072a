package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/healthconnect/portal/internal/core/domain"
	"github.com/healthconnect/portal/internal/core/service"
)

// UsersHandler serves the administrative user listing and its CSV export.
type UsersHandler struct {
	list *service.UserList
}

func NewUsersHandler(list *service.UserList) *UsersHandler {
	return &UsersHandler{list: list}
}

type usersPageData struct {
	Users      []domain.User
	Search     string
	UserType   string
	Page       int
	TotalPages int
	Count      int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
	Error      string
}

// Users applies the query-string filters to the view model (one reload)
// and renders the page. A failed reload keeps the previously loaded rows
// and surfaces the error once.
func (h *UsersHandler) Users(c echo.Context) error {
	search := c.QueryParam("search")
	userType := c.QueryParam("user_type")
	page, _ := strconv.Atoi(c.QueryParam("page"))

	var loadErr string
	if err := h.list.SetQuery(c.Request().Context(), search, userType, page); err != nil {
		loadErr = err.Error()
	}

	data := usersPageData{
		Users:      h.list.Users(),
		Search:     h.list.Search(),
		UserType:   h.list.UserType(),
		Page:       h.list.Page(),
		TotalPages: h.list.TotalPages(),
		Count:      h.list.Count(),
		HasPrev:    h.list.HasPrev(),
		HasNext:    h.list.HasNext(),
		PrevPage:   h.list.Page() - 1,
		NextPage:   h.list.Page() + 1,
		Error:      loadErr,
	}
	return c.Render(http.StatusOK, "users.html", data)
}

// Export streams the currently loaded page as a CSV download.
func (h *UsersHandler) Export(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="users.csv"`)
	res.WriteHeader(http.StatusOK)
	return h.list.ExportCSV(res)
}
