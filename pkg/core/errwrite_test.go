package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joeydtaylor/polygate/pkg/operr"
)

func sinkResponse(t *testing.T, err error) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()
	sink := NewErrorSink(zap.NewNop())
	rec := httptest.NewRecorder()
	sink(rec, httptest.NewRequest(http.MethodPost, "/invoke/echo", nil), err)

	var b errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return rec, b
}

func TestErrorSinkOperationalClientError(t *testing.T) {
	rec, b := sinkResponse(t, operr.New("order not found", http.StatusNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "fail", b.Status)
	assert.Equal(t, "order not found", b.Message)
}

func TestErrorSinkOperationalServerError(t *testing.T) {
	rec, b := sinkResponse(t, operr.New("upstream unavailable", http.StatusBadGateway))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "error", b.Status)
	assert.Equal(t, "upstream unavailable", b.Message)
}

func TestErrorSinkUnknownErrorIsGeneric(t *testing.T) {
	rec, b := sinkResponse(t, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", b.Status)
	assert.Equal(t, "internal server error", b.Message)
	assert.NotContains(t, rec.Body.String(), "pq:")
}
