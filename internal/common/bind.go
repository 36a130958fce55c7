package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindJSON decodes the request body into dst and validates its struct tags.
// Failures come back as ValidationErrors with field-level detail.
func BindJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return &AppError{Message: "invalid request body", HTTPStatus: http.StatusBadRequest, Err: err}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, FieldError{
					Field:   strings.ToLower(fe.Field()),
					Message: "failed on the '" + fe.Tag() + "' rule",
				})
			}
			return ValidationError("validation failed", fields...)
		}
		return &AppError{Message: "validation failed", HTTPStatus: http.StatusBadRequest, Err: err}
	}
	return nil
}
