package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/healthconnect/portal/internal/core/domain"
	"github.com/healthconnect/portal/internal/core/ports"
	"github.com/healthconnect/portal/internal/metrics"
)

// Session owns the portal's auth state: the cached user, the startup
// loading flag, and the token lifecycle in the store. All mutation goes
// through Start/Login/Logout/RefreshUser under one mutex, so views can
// read User/Loading from any goroutine without observing a
// half-authenticated state.
type Session struct {
	client ports.BackendClient
	store  ports.TokenStore
	log    zerolog.Logger

	mu      sync.Mutex
	user    *domain.User
	loading bool
}

var _ ports.Session = (*Session)(nil)

func NewSession(client ports.BackendClient, store ports.TokenStore, log zerolog.Logger) *Session {
	return &Session{
		client:  client,
		store:   store,
		log:     log,
		loading: true,
	}
}

// Start performs the silent restore: if a token is stored, fetch the
// current user; any failure clears token and user together. The loading
// flag drops to false exactly once, at the end of the attempt, and is
// never raised again.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.loading = false }()

	s.refreshLocked(ctx)
}

// Login authenticates, stores the returned token, and adopts the
// embedded user when the response carries one (skipping a redundant
// fetch). On failure the error propagates unchanged and neither token
// nor user move.
func (s *Session) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.client.Login(ctx, username, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	if err := s.store.Save(ctx, result.Token); err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	if result.User != nil {
		s.user = result.User
	} else {
		s.refreshLocked(ctx)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", username).Msg("logged in")
	return nil
}

// Logout clears the stored token and the cached user. No network call.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("logged out")
	return nil
}

// RefreshUser re-fetches the current user when a token is present. Any
// failure, including network and storage errors, tears the session down
// (token and user cleared together) rather than propagating.
func (s *Session) RefreshUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked(ctx)
	return nil
}

// refreshLocked holds the state machine's only transition into and out
// of the authenticated state. Callers hold s.mu.
func (s *Session) refreshLocked(ctx context.Context) {
	token, err := s.store.Load(ctx)
	if err != nil {
		s.clearLocked(ctx, err)
		return
	}
	if token == "" {
		s.user = nil
		return
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		s.clearLocked(ctx, err)
		return
	}
	s.user = user
}

func (s *Session) clearLocked(ctx context.Context, cause error) {
	s.log.Warn().Err(cause).Msg("user refresh failed, clearing session")
	metrics.SessionClearsTotal.Inc()
	if err := s.store.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("token clear failed")
	}
	s.user = nil
}

// User returns the cached authenticated user, or nil.
func (s *Session) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Loading reports whether the startup restore is still in progress.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}
