package handler

// Every API response is wrapped in one envelope so clients can branch on a
// single field:
//
//	{"success": true,  "data": {...}}
//	{"success": true,  "message": "Form deleted successfully"}
//	{"success": false, "error": "Validation failed", "details": [...]}

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/promptforms/internal/apperror"
)

// maxBodyBytes caps request bodies. Schemas and submissions are small.
const maxBodyBytes = 1 << 20

// Envelope is the JSON shape of every response.
type Envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Data    any                   `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
	Details []apperror.FieldError `json:"details,omitempty"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON sends v with the given status. Headers must be set before the
// body is written.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; all we can do is log.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// writeError maps a domain error to an HTTP status and sends it.
//
// Services return apperror kinds; only this function knows which status
// each one becomes. Anything else is a 500 whose cause is logged, never
// sent to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, Envelope{Error: "Internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrUpstream):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, Envelope{
		Error:   appErr.Message,
		Details: appErr.Details,
	})
}

// decodeJSON reads a JSON body into dst. Malformed JSON is a validation error
// so the client gets a 400 in the usual envelope.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", fmt.Sprintf("Request body must be %d bytes or less", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "Request body is required")
		default:
			return apperror.ValidationFailed("body", "Invalid JSON body")
		}
	}
	return nil
}

// checkStruct runs the `validate` tags of a request DTO. msgs maps a field's
// JSON name to the message reported when any of its rules fails.
func checkStruct(dst any, msgs map[string]string) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating request: %w", err)
	}

	details := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		msg, ok := msgs[field]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", field)
		}
		details = append(details, apperror.FieldError{Field: field, Message: msg})
	}
	if len(details) == 1 {
		return apperror.ValidationFailed(details[0].Field, details[0].Message)
	}
	return apperror.InvalidFields("Validation error", details)
}
