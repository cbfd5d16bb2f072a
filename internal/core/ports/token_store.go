package ports

import "context"

// TokenStore persists the bearer token between portal runs — the analog
// of the browser's local storage. Load returns "" (not an error) when no
// token is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
