package httpapi_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessinsight/accessinsight/pkg/httpapi"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, httpapi.WriteError(rec, 404, "NOT_FOUND", "no such route", map[string]string{"path": "/x"}))

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":"NOT_FOUND","message":"no such route","meta":{"path":"/x"}}`, rec.Body.String())
}

func TestWriteJSON_NilPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, httpapi.WriteJSON(rec, 204, nil))
	assert.Equal(t, 204, rec.Code)
	assert.Empty(t, rec.Body.String())
}
