package domain

import (
	"errors"
	"time"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

var ErrNotAuthenticated = errors.New("not authenticated")
var ErrForbidden = errors.New("access forbidden")

// User is the identity record returned by the HealthConnect backend.
// UserType is immutable after creation and decides which dashboard and
// capabilities apply.
type User struct {
	ID             int        `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	UserType       string     `json:"user_type"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	Address        *Address   `json:"address,omitempty"`
	FullName       string     `json:"full_name,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Name returns the display name: full_name when the backend sent one,
// otherwise "first last".
func (u *User) Name() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.FirstName + " " + u.LastName
}

// Address is a postal address. Entirely optional on a user; the signup
// payload treats it all-or-nothing (see SignupDraft).
type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Empty reports whether every subfield is blank.
func (a Address) Empty() bool {
	return a.Line1 == "" && a.City == "" && a.State == "" && a.Pincode == ""
}
