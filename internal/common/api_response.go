package common

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

// RespondSuccess writes an "ok" envelope. The status code defaults to 200.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	respond(w, firstOr(statusCode, http.StatusOK), dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: elapsed(initTime),
		Data:         data,
	})
}

// RespondError writes an "error" envelope. A non-nil err replaces message;
// the status code defaults to StatusForError(err).
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	respond(w, firstOr(statusCode, StatusForError(err)), dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      message,
		ResponseTime: elapsed(initTime),
	})
}

// StatusForError maps the application sentinels onto HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrPersistence):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperrors.ErrFormat), errors.Is(err, apperrors.ErrParse):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func firstOr(codes []int, def int) int {
	if len(codes) > 0 {
		return codes[0]
	}
	return def
}

// elapsed formats the handler time for the response envelope.
func elapsed(since time.Time) string {
	return strconv.FormatInt(time.Since(since).Milliseconds(), 10) + "ms"
}

func respond(w http.ResponseWriter, code int, body dtos.APIResponse) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error("JSON encode failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
