package service

import (
	"context"
	"encoding/csv"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/healthconnect/portal/internal/core/domain"
	"github.com/healthconnect/portal/internal/core/ports"
)

// pageSize matches the backend's fixed default page size.
const pageSize = 10

// UserTypeAll disables the role filter.
const UserTypeAll = "all"

// UserList is the view model behind the administrative user listing:
// search text, role filter, 1-based page, and the currently loaded rows.
// Changing any of the three inputs reloads the page; reloads run
// synchronously under the mutex, so a superseded query can never land
// after a newer one.
type UserList struct {
	client ports.BackendClient
	log    zerolog.Logger

	mu         sync.Mutex
	search     string
	userType   string
	page       int
	users      []domain.User
	count      int
	totalPages int
}

func NewUserList(client ports.BackendClient, log zerolog.Logger) *UserList {
	return &UserList{
		client:     client,
		log:        log,
		userType:   UserTypeAll,
		page:       1,
		totalPages: 1,
	}
}

// Reload re-fetches the current page with the current filters. On
// failure the previously loaded rows stay in place and the error
// surfaces once to the caller.
func (l *UserList) Reload(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reloadLocked(ctx)
}

// SetQuery applies search, role filter, and page in one step. A page
// below 1 is clamped to 1; a page beyond the freshly loaded result set
// is clamped to its last page and that page is fetched.
func (l *UserList) SetQuery(ctx context.Context, search, userType string, page int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if userType == "" {
		userType = UserTypeAll
	}
	if page < 1 {
		page = 1
	}

	l.search = search
	l.userType = userType
	l.page = page
	if err := l.reloadLocked(ctx); err != nil {
		return err
	}

	// The upper bound is only known after the load: a deep link may
	// request a page this process has never seen, so the requested page
	// goes to the backend as-is and is clamped against the fresh count.
	if last := l.lastPage(); l.page > last {
		l.page = last
		return l.reloadLocked(ctx)
	}
	return nil
}

// SetSearch updates the search text and reloads.
func (l *UserList) SetSearch(ctx context.Context, search string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.search = search
	return l.reloadLocked(ctx)
}

// SetUserType updates the role filter (all, patient, doctor) and reloads.
func (l *UserList) SetUserType(ctx context.Context, userType string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if userType == "" {
		userType = UserTypeAll
	}
	l.userType = userType
	return l.reloadLocked(ctx)
}

// NextPage advances one page, clamped at the last computed page.
func (l *UserList) NextPage(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.page >= l.lastPage() {
		return nil
	}
	l.page++
	return l.reloadLocked(ctx)
}

// PrevPage goes back one page, clamped at page 1.
func (l *UserList) PrevPage(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.page <= 1 {
		return nil
	}
	l.page--
	return l.reloadLocked(ctx)
}

func (l *UserList) reloadLocked(ctx context.Context) error {
	q := ports.UserQuery{Page: l.page, Search: l.search}
	if l.userType != UserTypeAll {
		q.UserType = l.userType
	}

	page, err := l.client.Users(ctx, q)
	if err != nil {
		l.log.Error().Err(err).Int("page", l.page).Msg("user list reload failed")
		return err
	}

	l.users = page.Results
	l.count = page.Count
	l.totalPages = (page.Count + pageSize - 1) / pageSize
	return nil
}

func (l *UserList) lastPage() int {
	if l.totalPages < 1 {
		return 1
	}
	return l.totalPages
}

func (l *UserList) Users() []domain.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.User, len(l.users))
	copy(out, l.users)
	return out
}

func (l *UserList) Search() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.search
}

func (l *UserList) UserType() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.userType
}

func (l *UserList) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// TotalPages is ceil(count / pageSize) from the last successful reload.
func (l *UserList) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalPages
}

func (l *UserList) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// HasPrev reports whether the previous-page control is enabled.
func (l *UserList) HasPrev() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page > 1
}

// HasNext reports whether the next-page control is enabled.
func (l *UserList) HasNext() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page < l.totalPages
}

// ExportCSV writes the currently loaded page (not the full result set)
// as CSV: Username, Email, Name, User Type.
func (l *UserList) ExportCSV(w io.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Username", "Email", "Name", "User Type"}); err != nil {
		return err
	}
	for i := range l.users {
		u := &l.users[i]
		if err := cw.Write([]string{u.Username, u.Email, u.FirstName + " " + u.LastName, u.UserType}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
