package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ppiankov/permitcheck/internal/validate"
)

// Error codes returned in the "error" field
const (
	CodeBadRequest      = "bad_request"
	CodeInvalidRequest  = "invalid_request"
	CodeRateLimited     = "rate_limited"
	CodeTimeout         = "timeout"
	CodeInternal        = "internal_error"
	CodeUnsupportedType = "unsupported_media_type"
)

type errorBody struct {
	Error       string                `json:"error"`
	Description string                `json:"error_description,omitempty"`
	Fields      []validate.FieldError `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error body. Internal errors omit the description.
func WriteError(w http.ResponseWriter, status int, code, description string) {
	body := errorBody{Error: code}
	if status < http.StatusInternalServerError {
		body.Description = description
	}
	WriteJSON(w, status, body)
}

// WriteValidationError writes a 400 listing every field problem
func WriteValidationError(w http.ResponseWriter, err error) {
	var verr *validate.Error
	if !errors.As(err, &verr) {
		WriteError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusBadRequest, errorBody{
		Error:       CodeInvalidRequest,
		Description: verr.Error(),
		Fields:      verr.Fields,
	})
}
