package core

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapSuccessNeverReachesSink(t *testing.T) {
	calls := 0
	sink := func(http.ResponseWriter, *http.Request, error) { calls++ }

	h := Wrap(func(w http.ResponseWriter, _ *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}, sink)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, calls)
}

func TestWrapFailureForwardedExactlyOnce(t *testing.T) {
	want := errors.New("boom")
	var got []error
	sink := func(_ http.ResponseWriter, _ *http.Request, err error) { got = append(got, err) }

	h := Wrap(func(http.ResponseWriter, *http.Request) error { return want }, sink)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0], want)
}
