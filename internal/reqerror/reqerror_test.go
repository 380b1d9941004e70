package reqerror

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWriteDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, zap.NewNop().Sugar(), Conflict("email already exists"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"email already exists"}`, rec.Body.String())
}

func TestWriteWrappedDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("signup: %w", BadRequest("invalid email format"))
	Write(rec, zap.NewNop().Sugar(), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid email format"}`, rec.Body.String())
}

func TestWriteUnknownErrorDoesNotLeak(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, zap.NewNop().Sugar(), errors.New("pq: connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.JSONEq(t, `{"error":"an unexpected error occurred"}`, rec.Body.String())
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, BadRequest("m").Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("m").Status)
	assert.Equal(t, http.StatusNotFound, NotFound("m").Status)
	assert.Equal(t, http.StatusConflict, Conflict("m").Status)
	assert.Equal(t, http.StatusInternalServerError, Internal("m").Status)
	assert.EqualError(t, New(418, "teapot"), "teapot")
}
