package users

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/jrsteele09/go-social-login/internal/errors"
	"github.com/pkg/errors"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// RegisterRequest is the local signup form.
type RegisterRequest struct {
	Email           string `validate:"required,email"`
	Username        string `validate:"required,min=3,username"`
	Password        string `validate:"required,password"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
	AcceptTerms     bool   `validate:"eq=true"`
	Newsletter      bool
}

// LoginRequest is the local login form. Username may also be an email.
type LoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required,min=6"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidatePasswordStrength(fl.Field().String()) == nil
	})
	return v
}

// validationError turns validator errors into the messages shown next to form fields.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(apperrors.ErrInvalidUserData, err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.Wrap(apperrors.ErrInvalidUserData, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.StructField() + "." + fe.Tag() {
	case "Email.required":
		return "Email is required"
	case "Email.email":
		return "Please enter a valid email address"
	case "Username.required":
		return "Username is required"
	case "Username.min":
		return "Username must be at least 3 characters long"
	case "Username.username":
		return "Username can only contain letters, numbers, and underscores"
	case "Password.required":
		return "Password is required"
	case "Password.min":
		return "Password must be at least 6 characters long"
	case "Password.password":
		return "Password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, and one number"
	case "ConfirmPassword.required":
		return "Please confirm your password"
	case "ConfirmPassword.eqfield":
		return "Passwords do not match"
	case "AcceptTerms.eq":
		return "You must agree to the Terms of Service"
	}
	return fe.Error()
}
