package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/healthconnect/portal/internal/core/domain"
)

// signupForm mirrors the validated subset of the draft. Tags encode the
// submission rules; pincode is optional but must be exactly six digits
// when present. The other address subfields are never required.
type signupForm struct {
	Username        string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"eqfield=Password"`
	FirstName       string `validate:"required"`
	LastName        string `validate:"required"`
	Pincode         string `validate:"omitempty,len=6,number"`
}

var signupValidate = validator.New()

// ValidateSignup checks the draft synchronously, with no network access,
// and returns a field→message map. The form is submittable iff the map
// is empty.
func ValidateSignup(draft domain.SignupDraft, confirmPassword string) map[string]string {
	form := signupForm{
		Username:        draft.Username,
		Email:           draft.Email,
		Password:        draft.Password,
		ConfirmPassword: confirmPassword,
		FirstName:       draft.FirstName,
		LastName:        draft.LastName,
		Pincode:         draft.Address.Pincode,
	}

	errs := make(map[string]string)
	err := signupValidate.Struct(form)
	if err == nil {
		return errs
	}

	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["form"] = err.Error()
		return errs
	}

	for _, fe := range ve {
		field, msg := signupFieldError(fe)
		if _, seen := errs[field]; !seen {
			errs[field] = msg
		}
	}
	return errs
}

func signupFieldError(fe validator.FieldError) (field, msg string) {
	switch fe.StructField() {
	case "Username":
		return "username", "Username is required"
	case "Email":
		if fe.Tag() == "required" {
			return "email", "Email is required"
		}
		return "email", "Invalid email format"
	case "Password":
		if fe.Tag() == "min" {
			return "password", "Password must be at least 8 characters"
		}
		return "password", "Password is required"
	case "ConfirmPassword":
		return "confirmPassword", "Passwords do not match"
	case "FirstName":
		return "first_name", "First name is required"
	case "LastName":
		return "last_name", "Last name is required"
	case "Pincode":
		return "pincode", "Pincode must be 6 digits"
	default:
		return fe.StructField(), fe.Error()
	}
}
