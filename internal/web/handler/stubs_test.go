package handler

import (
	"context"
	"errors"

	"github.com/healthconnect/portal/internal/core/domain"
	"github.com/healthconnect/portal/internal/core/ports"
)

const testSecret = "test-secret"

type stubSession struct {
	user         *domain.User
	loginFn      func(username, password string) error
	refreshFn    func() error
	refreshCalls int
	logoutCalls  int
}

func (s *stubSession) Start(context.Context) {}

func (s *stubSession) Login(_ context.Context, username, password string) error {
	if s.loginFn == nil {
		return errors.New("not stubbed")
	}
	return s.loginFn(username, password)
}

func (s *stubSession) Logout(context.Context) error {
	s.logoutCalls++
	s.user = nil
	return nil
}

func (s *stubSession) RefreshUser(context.Context) error {
	s.refreshCalls++
	if s.refreshFn != nil {
		return s.refreshFn()
	}
	return nil
}

func (s *stubSession) User() *domain.User { return s.user }

func (s *stubSession) Loading() bool { return false }

type stubClient struct {
	loginFn     func(username, password string) (*ports.LoginResult, error)
	signupFn    func(draft domain.SignupDraft) (*ports.LoginResult, error)
	usersFn     func(q ports.UserQuery) (*ports.UserPage, error)
	patientFn   func() (ports.Dashboard, error)
	doctorFn    func() (ports.Dashboard, error)
	signupDraft *domain.SignupDraft
	signupCalls int
}

func (c *stubClient) Login(_ context.Context, username, password string) (*ports.LoginResult, error) {
	if c.loginFn == nil {
		return nil, errors.New("not stubbed")
	}
	return c.loginFn(username, password)
}

func (c *stubClient) Signup(_ context.Context, draft domain.SignupDraft) (*ports.LoginResult, error) {
	c.signupCalls++
	c.signupDraft = &draft
	if c.signupFn == nil {
		return nil, errors.New("not stubbed")
	}
	return c.signupFn(draft)
}

func (c *stubClient) CurrentUser(context.Context) (*domain.User, error) {
	return nil, errors.New("not stubbed")
}

func (c *stubClient) Users(_ context.Context, q ports.UserQuery) (*ports.UserPage, error) {
	if c.usersFn == nil {
		return nil, errors.New("not stubbed")
	}
	return c.usersFn(q)
}

func (c *stubClient) PatientDashboard(context.Context) (ports.Dashboard, error) {
	if c.patientFn == nil {
		return nil, errors.New("not stubbed")
	}
	return c.patientFn()
}

func (c *stubClient) DoctorDashboard(context.Context) (ports.Dashboard, error) {
	if c.doctorFn == nil {
		return nil, errors.New("not stubbed")
	}
	return c.doctorFn()
}

type memStore struct {
	token   string
	saves   int
	saveErr error
}

func (m *memStore) Load(context.Context) (string, error) { return m.token, nil }

func (m *memStore) Save(_ context.Context, token string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = token
	m.saves++
	return nil
}

func (m *memStore) Clear(context.Context) error {
	m.token = ""
	return nil
}
