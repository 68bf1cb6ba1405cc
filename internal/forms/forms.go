package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegistrationForm carries the registration POST body. Field names in
// errors come from the form tag so templates can match inputs.
type RegistrationForm struct {
	FirstName       string `form:"first_name" validate:"required,max=100"`
	LastName        string `form:"last_name" validate:"required,max=100"`
	Username        string `form:"username" validate:"required,min=3,max=50"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember"`
	Next     string `form:"next"`
}

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// report form tag names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate checks a form and returns field-level errors as plain values.
// Expected validation failures never surface as a Go error; a non-nil
// error means a programmer mistake (non-struct input and the like).
func (val *Validator) Validate(form any) ([]FieldError, error) {
	err := val.v.Struct(form)

	if err == nil {
		return nil, nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, invalid
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	fields := make([]FieldError, 0, len(verrs))

	for _, fe := range verrs {
		rule := fe.Tag()
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    rule,
			Message: validationMessage(fe.Field(), rule, fe.Param()),
		})
	}
	return fields, nil
}

func validationMessage(field, rule, param string) string {
	label := fieldLabel(field)

	switch rule {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, param)
	case "eqfield":
		return "Passwords do not match"
	default:
		return label + " failed " + rule + " validation"
	}
}

func fieldLabel(field string) string {
	parts := strings.Split(field, "_")

	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
