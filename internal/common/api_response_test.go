package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
)

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusForError(fmt.Errorf("%w: busy", apperrors.ErrConflict)))
	assert.Equal(t, http.StatusNotFound, StatusForError(apperrors.ErrNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, StatusForError(apperrors.ErrPersistence))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForError(apperrors.ErrParse))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(nil))
}

func TestRespondError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, time.Now(), apperrors.ErrNotFound, "ignored")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"status":"error"`)
	assert.Contains(t, rr.Body.String(), `"message":"not found"`)
	assert.NotContains(t, rr.Body.String(), `"data"`)

	rr = httptest.NewRecorder()
	RespondError(rr, time.Now(), nil, "bad input", http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"message":"bad input"`)
}
