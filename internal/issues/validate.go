package issues

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// IssueForm is the body accepted when creating or editing an issue.
// Description must be present but may be empty.
type IssueForm struct {
	Title       string  `json:"title" validate:"required,notblank,max=255"`
	Description *string `json:"description" validate:"required,max=65535"`
}

// formValidate is shared; validator.Validate caches struct metadata and is
// safe for concurrent use.
var formValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// DecodeForm parses and validates a JSON request body holding exactly one
// object. Every failure is a *ValidationError.
func DecodeForm(body []byte) (*IssueForm, error) {
	var form IssueForm
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&form); err != nil {
		return nil, decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Fields: map[string]string{
			"body": "request body must contain a single JSON object",
		}}
	}
	if err := formValidate.Struct(&form); err != nil {
		return nil, fieldErrors(err)
	}
	return &form, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &ValidationError{Fields: map[string]string{
			typeErr.Field: fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type),
		}}
	}
	return &ValidationError{Fields: map[string]string{
		"body": "request body must be a JSON object",
	}}
}

func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
