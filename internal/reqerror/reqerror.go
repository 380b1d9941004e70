package reqerror

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ReqError is a request-scoped domain error carrying the HTTP status that
// should be reported to the client alongside a safe message.
type ReqError struct {
	Status  int
	Message string
}

func (e *ReqError) Error() string { return e.Message }

// New constructs a ReqError with an arbitrary status.
func New(status int, message string) *ReqError {
	return &ReqError{Status: status, Message: message}
}

func BadRequest(message string) *ReqError   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *ReqError { return New(http.StatusUnauthorized, message) }
func NotFound(message string) *ReqError     { return New(http.StatusNotFound, message) }
func Conflict(message string) *ReqError     { return New(http.StatusConflict, message) }
func Internal(message string) *ReqError     { return New(http.StatusInternalServerError, message) }

// genericMessage is what clients see for any error that is not a ReqError.
// Internal detail stays in the server log only.
const genericMessage = "an unexpected error occurred"

// Write reports err to the client. Domain errors keep their status and
// message; anything else becomes a plain 500 with the generic message and
// the full error is logged server-side.
func Write(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	var re *ReqError
	if errors.As(err, &re) {
		if logger != nil {
			logger.Debugw("request failed", "status", re.Status, "message", re.Message)
		}
		writeJSON(w, re.Status, map[string]string{"error": re.Message})
		return
	}
	if logger != nil {
		logger.Errorw("unhandled error", "err", err)
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": genericMessage})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
