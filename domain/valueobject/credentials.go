package valueobject

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrMissingName      = errors.New("first and last name are required")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func NewCredentials(email, password string) (*Credentials, error) {
	c := &Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := validate.Struct(c); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// Registration is the payload of the register endpoint.
type Registration struct {
	FirstName string `json:"fname" validate:"required"`
	LastName  string `json:"lname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

func (r Registration) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if err := validate.Struct(r); err != nil {
		return translate(err)
	}
	return nil
}

// Credentials returns the login credentials carried by the registration.
func (r Registration) Credentials() (*Credentials, error) {
	return NewCredentials(r.Email, r.Password)
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Field() {
	case "Email":
		return ErrInvalidEmail
	case "Password":
		return ErrPasswordTooShort
	case "FirstName", "LastName":
		return ErrMissingName
	default:
		return err
	}
}
