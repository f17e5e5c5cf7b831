package validation

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"

	"rental-portal/internal/common/errors"
)

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validator: validator.New()}
}

// Validate returns an INVALID_INPUT StandardError listing each failing field.
func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewInvalidInputError(err.Error())
	}

	fields := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Code:    fe.Tag(),
		})
	}
	return errors.NewInvalidInputError("request validation failed").WithMetadata("fields", fields)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Too short"
	case "max":
		return "Too long"
	case "gte":
		return "Value too small"
	case "lte":
		return "Value too large"
	case "latitude", "longitude":
		return "Invalid coordinate"
	default:
		return "Invalid value"
	}
}
