package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthconnect/portal/internal/core/domain"
	"github.com/healthconnect/portal/internal/core/ports"
	"github.com/healthconnect/portal/internal/core/service"
	"github.com/healthconnect/portal/internal/web/middleware"
)

// SignupHandler serves the signup form and the account creation action.
type SignupHandler struct {
	client  ports.BackendClient
	session ports.Session
	store   ports.TokenStore
	secret  string
	secure  bool
}

func NewSignupHandler(client ports.BackendClient, session ports.Session, store ports.TokenStore, secret string, secure bool) *SignupHandler {
	return &SignupHandler{client: client, session: session, store: store, secret: secret, secure: secure}
}

type signupPageData struct {
	Draft  domain.SignupDraft
	Errors map[string]string
	Error  string
}

func (h *SignupHandler) SignupPage(c echo.Context) error {
	return c.Render(http.StatusOK, "signup.html", signupPageData{
		Draft:  domain.SignupDraft{UserType: domain.RolePatient},
		Errors: map[string]string{},
	})
}

// Signup validates the draft locally and, only when clean, submits it to
// the backend. Validation never touches the network; backend rejections
// re-render the form with the flattened message.
func (h *SignupHandler) Signup(c echo.Context) error {
	draft, err := draftFromForm(c)
	if err != nil {
		return err
	}
	confirmPassword := c.FormValue("confirm_password")

	if errs := service.ValidateSignup(draft, confirmPassword); len(errs) > 0 {
		return c.Render(http.StatusBadRequest, "signup.html", signupPageData{
			Draft:  draft,
			Errors: errs,
			Error:  "Please fix the errors in the form",
		})
	}

	ctx := c.Request().Context()
	result, err := h.client.Signup(ctx, draft)
	if err != nil {
		return c.Render(http.StatusBadRequest, "signup.html", signupPageData{
			Draft:  draft,
			Errors: map[string]string{},
			Error:  err.Error(),
		})
	}

	// Adopt the new account the same way a login would: store the token,
	// then refresh the session from it. The account exists at this point,
	// so a local failure still re-renders the form rather than a bare 500.
	if err := h.store.Save(ctx, result.Token); err != nil {
		return c.Render(http.StatusInternalServerError, "signup.html", signupPageData{
			Draft:  draft,
			Errors: map[string]string{},
			Error:  "Account created but sign-in failed, please log in: " + err.Error(),
		})
	}
	if err := h.session.RefreshUser(ctx); err != nil {
		return c.Render(http.StatusInternalServerError, "signup.html", signupPageData{
			Draft:  draft,
			Errors: map[string]string{},
			Error:  "Account created but sign-in failed, please log in: " + err.Error(),
		})
	}

	userType := result.UserType
	if userType == "" && result.User != nil {
		userType = result.User.UserType
	}
	if userType == "" {
		userType = draft.UserType
	}

	cookie, err := middleware.NewSessionCookie(h.secret, draft.Username, userType, h.secure)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)

	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

func draftFromForm(c echo.Context) (domain.SignupDraft, error) {
	userType := c.FormValue("user_type")
	if userType != domain.RoleDoctor {
		userType = domain.RolePatient
	}

	draft := domain.SignupDraft{
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		UserType:  userType,
		Address: domain.Address{
			Line1:   c.FormValue("address_line1"),
			City:    c.FormValue("address_city"),
			State:   c.FormValue("address_state"),
			Pincode: c.FormValue("address_pincode"),
		},
	}

	file, err := c.FormFile("profile_picture")
	if errors.Is(err, http.ErrMissingFile) {
		return draft, nil
	}
	if err != nil {
		// No multipart body at all behaves like no file chosen.
		return draft, nil
	}

	src, err := file.Open()
	if err != nil {
		return draft, err
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return draft, err
	}
	if len(content) > 0 {
		draft.ProfilePicture = &domain.Upload{Filename: file.Filename, Content: content}
	}
	return draft, nil
}
