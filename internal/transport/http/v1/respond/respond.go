// Package respond writes the JSON envelopes shared by all v1 handlers.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
)

const (
	codeInternal    = "INTERNAL_ERROR"
	messageInternal = "An unexpected error occurred"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

type paginated struct {
	Success    bool  `json:"success"`
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// JSON writes data inside a success envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	write(w, r, status, envelope{Success: true, Message: message, Data: data})
}

// Page writes one page of a listing.
func Page(w http.ResponseWriter, r *http.Request, data any, total int64, page, pageSize, totalPages int) {
	write(w, r, http.StatusOK, paginated{
		Success:    true,
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindBadRequest, apperr.KindInsufficientStock:
		return http.StatusBadRequest
	case apperr.KindConflict, apperr.KindInvalidStateTransition:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an error envelope. Unclassified errors are logged and
// rendered as a generic internal error.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		write(w, r, http.StatusInternalServerError, errorEnvelope{
			Error: errorBody{Code: codeInternal, Message: messageInternal},
		})

		return
	}

	write(w, r, StatusOf(appErr.Kind), errorEnvelope{
		Error: errorBody{Code: appErr.Code, Message: appErr.Message},
	})
}

// Decode reads a JSON body into dst, rejecting unknown fields, then validates it.
func Decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("VALIDATION_ERROR", "request body is empty")
		}

		return apperr.BadRequest("VALIDATION_ERROR", "invalid request body: %s", err.Error())
	}

	return Validate(dst)
}

// Validate runs the struct validation tags of v.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperr.BadRequest("VALIDATION_ERROR", "%s", fmt.Sprintf("field %s failed on %s", fe.Namespace(), fe.Tag()))
	}

	return apperr.BadRequest("VALIDATION_ERROR", "%s", err.Error())
}

func write(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "Error writing response", "path", r.URL.Path, "error", err)
	}
}
