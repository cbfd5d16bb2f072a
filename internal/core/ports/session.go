package ports

import (
	"context"

	"github.com/healthconnect/portal/internal/core/domain"
)

// Session is the process-wide auth state. Views read User/Loading; all
// mutation goes through the four operations (single-writer discipline).
type Session interface {
	// Start attempts a silent restore from the stored token. It flips
	// Loading to false exactly once, at the end of the attempt.
	Start(ctx context.Context)

	// Login authenticates and stores the returned token. On failure the
	// error propagates unchanged and token/user are left untouched.
	Login(ctx context.Context, username, password string) error

	// Logout clears the stored token and the cached user. No network call.
	Logout(ctx context.Context) error

	// RefreshUser re-fetches the current user when a token is present.
	// Any failure clears token and user together.
	RefreshUser(ctx context.Context) error

	User() *domain.User
	Loading() bool
}
