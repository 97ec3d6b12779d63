package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	sw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusTeapot, sw.status)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestStatusWriterUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	assert.Same(t, rec, sw.Unwrap().(*httptest.ResponseRecorder))

	// ResponseController must find the recorder's Flusher through the
	// wrapper.
	require.NoError(t, http.NewResponseController(sw).Flush())
	assert.True(t, rec.Flushed)
}
