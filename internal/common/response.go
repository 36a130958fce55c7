package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// BaseResponse is the envelope shared by every API response.
type BaseResponse struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
}

// FieldError carries field-level validation detail.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the failure variant of the response union.
type ErrorResponse struct {
	BaseResponse
	Errors []FieldError `json:"errors,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope merged with the provided payload fields.
func OK(w http.ResponseWriter, message string, payload map[string]any) {
	respond(w, http.StatusOK, message, payload)
}

// Created writes a 201 success envelope merged with the provided payload fields.
func Created(w http.ResponseWriter, message string, payload map[string]any) {
	respond(w, http.StatusCreated, message, payload)
}

func respond(w http.ResponseWriter, status int, message string, payload map[string]any) {
	body := map[string]any{
		"statusCode": status,
		"success":    true,
	}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	JSON(w, status, body)
}

// Fail resolves err into the error variant of the response union. AppErrors map
// onto their declared status; anything else is an unexpected failure which is
// logged and, in production, replaced by a generic message.
func Fail(w http.ResponseWriter, r *http.Request, err error, production bool) {
	var app *AppError
	if errors.As(err, &app) {
		JSON(w, app.HTTPStatus, ErrorResponse{
			BaseResponse: BaseResponse{StatusCode: app.HTTPStatus, Success: false, Message: app.Message},
			Errors:       app.Fields,
		})
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
	message := "something went wrong"
	if !production && err != nil {
		message = err.Error()
	}
	JSON(w, http.StatusInternalServerError, ErrorResponse{
		BaseResponse: BaseResponse{StatusCode: http.StatusInternalServerError, Success: false, Message: message},
	})
}
