package domain

// SignupDraft is the transient signup form state. It exists only for the
// duration of a signup attempt and is never persisted. The confirm
// password lives outside the draft: it is a local equality check and is
// never transmitted.
type SignupDraft struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	UserType  string

	// ProfilePicture is the local file chosen in the form, nil when the
	// user picked none.
	ProfilePicture *Upload

	// Address is submitted only when at least one subfield is non-empty.
	Address Address
}

// Upload is an in-memory file handle read from the form.
type Upload struct {
	Filename string
	Content  []byte
}
