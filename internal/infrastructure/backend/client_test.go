package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/healthconnect/portal/internal/core/domain"
	"github.com/healthconnect/portal/internal/core/ports"
)

type memStore struct {
	token string
}

func (m *memStore) Load(context.Context) (string, error) { return m.token, nil }

func (m *memStore) Save(_ context.Context, tok string) error { m.token = tok; return nil }

func (m *memStore) Clear(context.Context) error { m.token = ""; return nil }

func newTestClient(t *testing.T, store *memStore, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, store, zerolog.Nop()), srv
}

func TestClient_Login_Success(t *testing.T) {
	client, _ := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login/" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("login must not carry an auth header")
		}

		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("invalid login body: %v", err)
		}
		if creds["username"] != "alice" || creds["password"] != "s3cret-pw" {
			t.Fatalf("unexpected credentials: %v", creds)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok123","user":{"id":1,"username":"alice","user_type":"patient"},"user_type":"patient","message":"Login successful"}`))
	})

	res, err := client.Login(context.Background(), "alice", "s3cret-pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token != "tok123" || res.UserType != "patient" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.User == nil || res.User.Username != "alice" {
		t.Fatalf("expected embedded user, got %+v", res.User)
	}
}

func TestClient_Login_DetailError(t *testing.T) {
	client, _ := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid credentials"}`))
	})

	_, err := client.Login(context.Background(), "alice", "wrong")
	if err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("expected detail message, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected APIError 401, got %v", err)
	}
}

func TestClient_Login_FieldErrorsJoined(t *testing.T) {
	client, _ := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"username":["This field is required."]}`))
	})

	_, err := client.Login(context.Background(), "", "")
	if err == nil || err.Error() != "This field is required." {
		t.Fatalf("expected flattened field values, got %v", err)
	}
}

func TestClient_Login_IgnoresStoredToken(t *testing.T) {
	// A stale token left in the store must not ride along on a login
	// attempt, or the backend rejects it before checking credentials.
	client, _ := newTestClient(t, &memStore{token: "stale-token"}, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("login carried auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"fresh-token","user_type":"patient"}`))
	})

	res, err := client.Login(context.Background(), "alice", "s3cret-pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token != "fresh-token" {
		t.Fatalf("unexpected token: %q", res.Token)
	}
}

func TestClient_Signup_IgnoresStoredToken(t *testing.T) {
	client, _ := newTestClient(t, &memStore{token: "stale-token"}, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("signup carried auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"fresh-token","user_type":"patient"}`))
	})

	if _, err := client.Signup(context.Background(), signupDraft()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
}

func signupDraft() domain.SignupDraft {
	return domain.SignupDraft{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "longenough",
		FirstName: "Alice",
		LastName:  "Adams",
		UserType:  domain.RolePatient,
	}
}

func TestClient_Signup_OmitsEmptyAddress(t *testing.T) {
	client, _ := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not a multipart form: %v", err)
		}
		for _, field := range []string{"username", "email", "password", "first_name", "last_name", "user_type"} {
			if len(r.MultipartForm.Value[field]) != 1 {
				t.Fatalf("missing form part %s", field)
			}
		}
		for key := range r.MultipartForm.Value {
			if key == "address[line1]" || key == "address[city]" || key == "address[state]" || key == "address[pincode]" {
				t.Fatalf("empty address must be omitted, found %s", key)
			}
		}
		if key := "confirm_password"; len(r.MultipartForm.Value[key]) != 0 {
			t.Fatalf("confirm password must never be transmitted")
		}
		if len(r.MultipartForm.File["profile_picture"]) != 0 {
			t.Fatalf("no picture was chosen")
		}
		_, _ = w.Write([]byte(`{"token":"tok","user_type":"patient"}`))
	})

	if _, err := client.Signup(context.Background(), signupDraft()); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
}

func TestClient_Signup_OnePopulatedSubfieldSendsAllFour(t *testing.T) {
	client, _ := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not a multipart form: %v", err)
		}
		want := map[string]string{
			"address[line1]":   "",
			"address[city]":    "Pune",
			"address[state]":   "",
			"address[pincode]": "",
		}
		for key, value := range want {
			got := r.MultipartForm.Value[key]
			if len(got) != 1 || got[0] != value {
				t.Fatalf("part %s: expected %q, got %v", key, value, got)
			}
		}
		_, _ = w.Write([]byte(`{"token":"tok"}`))
	})

	draft := signupDraft()
	draft.Address.City = "Pune"
	if _, err := client.Signup(context.Background(), draft); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
}

func TestClient_Signup_SendsProfilePicture(t *testing.T) {
	client, _ := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not a multipart form: %v", err)
		}
		files := r.MultipartForm.File["profile_picture"]
		if len(files) != 1 || files[0].Filename != "me.png" {
			t.Fatalf("expected profile_picture part, got %v", files)
		}
		f, err := files[0].Open()
		if err != nil {
			t.Fatalf("open upload: %v", err)
		}
		defer f.Close()
		buf := make([]byte, 4)
		if _, err := f.Read(buf); err != nil || string(buf) != "fake" {
			t.Fatalf("unexpected upload content %q (%v)", buf, err)
		}
		_, _ = w.Write([]byte(`{"token":"tok"}`))
	})

	draft := signupDraft()
	draft.ProfilePicture = &domain.Upload{Filename: "me.png", Content: []byte("fake")}
	if _, err := client.Signup(context.Background(), draft); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
}

func TestClient_Signup_FieldError(t *testing.T) {
	client, _ := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"username": ["already exists"]}`))
	})

	_, err := client.Signup(context.Background(), signupDraft())
	if err == nil || err.Error() != "username: already exists" {
		t.Fatalf("expected flattened field error, got %v", err)
	}
}

func TestClient_Signup_NonJSONErrorUsesStatusText(t *testing.T) {
	client, _ := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>nope</html>"))
	})

	_, err := client.Signup(context.Background(), signupDraft())
	if err == nil || err.Error() != "signup failed: Bad Gateway" {
		t.Fatalf("expected status text fallback, got %v", err)
	}
}

func TestClient_CurrentUser_SendsTokenHeader(t *testing.T) {
	client, _ := newTestClient(t, &memStore{token: "tok123"}, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/me/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token tok123" {
			t.Fatalf("unexpected auth header %q", got)
		}
		_, _ = w.Write([]byte(`{"id":1,"username":"alice","user_type":"doctor"}`))
	})

	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("current user failed: %v", err)
	}
	if user.Username != "alice" || user.UserType != "doctor" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestClient_CurrentUser_GenericFailure(t *testing.T) {
	client, _ := newTestClient(t, &memStore{}, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("no token stored, header must be omitted")
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Not authenticated"}`))
	})

	_, err := client.CurrentUser(context.Background())
	if err == nil || err.Error() != "failed to fetch user" {
		t.Fatalf("the body must not be inspected, got %v", err)
	}
}

func TestClient_Users_QueryParams(t *testing.T) {
	client, _ := newTestClient(t, &memStore{token: "tok"}, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("user_type") != "doctor" || q.Get("search") != "smith" || q.Get("page") != "2" {
			t.Fatalf("unexpected query %v", q)
		}
		if _, ok := q["ordering"]; ok {
			t.Fatalf("unset ordering must be omitted")
		}
		_, _ = w.Write([]byte(`{"results":[{"id":2,"username":"drsmith","user_type":"doctor"}],"count":25,"next":"?page=3","previous":"?page=1"}`))
	})

	page, err := client.Users(context.Background(), ports.UserQuery{UserType: "doctor", Search: "smith", Page: 2})
	if err != nil {
		t.Fatalf("users failed: %v", err)
	}
	if page.Count != 25 || len(page.Results) != 1 || page.Results[0].Username != "drsmith" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestClient_Users_OmitsUnsetParams(t *testing.T) {
	client, _ := newTestClient(t, &memStore{token: "tok"}, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Fatalf("expected no query string, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[],"count":0,"next":null,"previous":null}`))
	})

	page, err := client.Users(context.Background(), ports.UserQuery{})
	if err != nil {
		t.Fatalf("users failed: %v", err)
	}
	if page.Next != "" || page.Previous != "" {
		t.Fatalf("null links must decode to empty strings, got %+v", page)
	}
}

func TestClient_Dashboards(t *testing.T) {
	client, _ := newTestClient(t, &memStore{token: "tok"}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/patient/dashboard/":
			_, _ = w.Write([]byte(`{"upcoming_appointments":2}`))
		case "/api/doctor/dashboard/":
			w.WriteHeader(http.StatusForbidden)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	d, err := client.PatientDashboard(context.Background())
	if err != nil {
		t.Fatalf("patient dashboard failed: %v", err)
	}
	if d["upcoming_appointments"] != float64(2) {
		t.Fatalf("unexpected payload %v", d)
	}

	if _, err := client.DoctorDashboard(context.Background()); err == nil || err.Error() != "failed to fetch doctor dashboard" {
		t.Fatalf("expected generic dashboard failure, got %v", err)
	}
}
