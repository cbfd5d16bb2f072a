// Package backend implements the HTTP client for the HealthConnect REST
// API. It is the portal's single point of contact with the remote
// service: callers receive typed results or an error carrying one
// human-readable message, never a raw transport failure.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthconnect/portal/internal/core/domain"
	"github.com/healthconnect/portal/internal/core/ports"
	"github.com/healthconnect/portal/internal/metrics"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	store      ports.TokenStore
	httpClient *http.Client
	log        zerolog.Logger
}

var _ ports.BackendClient = (*Client)(nil)

// NewClient creates a backend client rooted at baseURL. The token store
// supplies the bearer token for authenticated calls.
func NewClient(baseURL string, store ports.TokenStore, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		store:   store,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: log,
	}
}

// Login exchanges credentials for a token. On rejection the error
// message comes from the body's detail key, falling back to a flattened
// join of all field-level error values.
func (c *Client) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("encode login payload: %w", err)
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, "/api/login/", nil, "application/json", bytes.NewReader(payload), false)
	if err != nil {
		c.observe("login", start, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		err = &APIError{StatusCode: resp.StatusCode, Message: loginErrorMessage(body)}
		c.observe("login", start, err)
		return nil, err
	}

	var result ports.LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		err = fmt.Errorf("decode login response: %w", err)
		c.observe("login", start, err)
		return nil, err
	}
	c.observe("login", start, nil)
	return &result, nil
}

// Signup submits the draft as a multipart form. The address block is
// sent as four discrete address[...] parts only when at least one
// subfield is non-empty; the profile picture part only when a file was
// chosen. Rejections surface as a single field-flattened message.
func (c *Client) Signup(ctx context.Context, draft domain.SignupDraft) (*ports.LoginResult, error) {
	body, contentType, err := buildSignupForm(draft)
	if err != nil {
		return nil, fmt.Errorf("build signup form: %w", err)
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, "/api/signup/", nil, contentType, body, false)
	if err != nil {
		c.observe("signup", start, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		msg, ok := errorMessage(raw)
		if !ok {
			msg = "signup failed: " + http.StatusText(resp.StatusCode)
		}
		err = &APIError{StatusCode: resp.StatusCode, Message: msg}
		c.observe("signup", start, err)
		return nil, err
	}

	var result ports.LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		err = fmt.Errorf("decode signup response: %w", err)
		c.observe("signup", start, err)
		return nil, err
	}
	c.observe("signup", start, nil)
	return &result, nil
}

// CurrentUser fetches the authenticated user. Any non-2xx status yields
// a generic failure; the body is not inspected.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "me", "/api/users/me/", nil, "failed to fetch user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Users fetches one page of the user listing. Filters with zero values
// are omitted from the query string.
func (c *Client) Users(ctx context.Context, q ports.UserQuery) (*ports.UserPage, error) {
	params := url.Values{}
	if q.UserType != "" {
		params.Set("user_type", q.UserType)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Ordering != "" {
		params.Set("ordering", q.Ordering)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}

	var page ports.UserPage
	if err := c.getJSON(ctx, "users", "/api/users/", params, "failed to fetch users", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PatientDashboard fetches the opaque patient dashboard payload.
func (c *Client) PatientDashboard(ctx context.Context) (ports.Dashboard, error) {
	var d ports.Dashboard
	if err := c.getJSON(ctx, "patient_dashboard", "/api/patient/dashboard/", nil, "failed to fetch patient dashboard", &d); err != nil {
		return nil, err
	}
	return d, nil
}

// DoctorDashboard fetches the opaque doctor dashboard payload.
func (c *Client) DoctorDashboard(ctx context.Context) (ports.Dashboard, error) {
	var d ports.Dashboard
	if err := c.getJSON(ctx, "doctor_dashboard", "/api/doctor/dashboard/", nil, "failed to fetch doctor dashboard", &d); err != nil {
		return nil, err
	}
	return d, nil
}

// Ping verifies the backend is reachable. Any HTTP response counts as
// reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, failMsg string, out any) error {
	start := time.Now()
	resp, err := c.do(ctx, http.MethodGet, path, query, "", nil, true)
	if err != nil {
		c.observe(endpoint, start, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = &APIError{StatusCode: resp.StatusCode, Message: failMsg}
		c.observe(endpoint, start, err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		err = fmt.Errorf("decode %s response: %w", endpoint, err)
		c.observe(endpoint, start, err)
		return err
	}
	c.observe(endpoint, start, nil)
	return nil
}

// do issues the request. On authenticated calls the stored bearer token
// is attached when present; a missing token simply omits the header and
// the backend rejects the call on its own. Login and signup always go
// out without the header, so a stale stored token can never block
// re-authentication.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, authed bool) (*http.Response, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if authed {
		token, err := c.store.Load(ctx)
		if err != nil {
			c.log.Warn().Err(err).Msg("token load failed, sending unauthenticated request")
		} else if token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
		c.log.Debug().Err(err).Str("endpoint", endpoint).Msg("backend request failed")
	}
	metrics.BackendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

func buildSignupForm(draft domain.SignupDraft) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"username", draft.Username},
		{"email", draft.Email},
		{"password", draft.Password},
		{"first_name", draft.FirstName},
		{"last_name", draft.LastName},
		{"user_type", draft.UserType},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if draft.ProfilePicture != nil {
		fw, err := w.CreateFormFile("profile_picture", draft.ProfilePicture.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(draft.ProfilePicture.Content); err != nil {
			return nil, "", err
		}
	}

	// An all-empty address block is never transmitted; one non-empty
	// subfield sends all four keys.
	if !draft.Address.Empty() {
		addr := []struct{ name, value string }{
			{"address[line1]", draft.Address.Line1},
			{"address[city]", draft.Address.City},
			{"address[state]", draft.Address.State},
			{"address[pincode]", draft.Address.Pincode},
		}
		for _, f := range addr {
			if err := w.WriteField(f.name, f.value); err != nil {
				return nil, "", err
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
