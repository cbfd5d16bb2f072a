package ports

import (
	"context"

	"github.com/healthconnect/portal/internal/core/domain"
)

// LoginResult is the backend's response to a successful login or signup.
// User may be nil when the backend omits the embedded record; callers
// fall back to a CurrentUser fetch.
type LoginResult struct {
	Token    string       `json:"token"`
	User     *domain.User `json:"user"`
	UserType string       `json:"user_type"`
	Message  string       `json:"message"`
}

// UserQuery carries the list filters. Zero values are omitted from the
// request entirely.
type UserQuery struct {
	UserType string
	Search   string
	Ordering string
	Page     int
}

// UserPage is one page of the user listing plus the pagination envelope.
type UserPage struct {
	Results  []domain.User `json:"results"`
	Count    int           `json:"count"`
	Next     string        `json:"next"`
	Previous string        `json:"previous"`
}

// Dashboard is the opaque per-role dashboard payload; the views render
// it loosely.
type Dashboard map[string]any

// BackendClient is the single point of contact with the HealthConnect
// REST API. Implementations never expose raw transport errors: every
// failure carries a single human-readable message.
type BackendClient interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Signup(ctx context.Context, draft domain.SignupDraft) (*LoginResult, error)
	CurrentUser(ctx context.Context) (*domain.User, error)
	Users(ctx context.Context, q UserQuery) (*UserPage, error)
	PatientDashboard(ctx context.Context) (Dashboard, error)
	DoctorDashboard(ctx context.Context) (Dashboard, error)
}
