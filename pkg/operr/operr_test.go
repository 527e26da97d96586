package operr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusClass(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{http.StatusNotFound, StatusFail},
		{http.StatusUnauthorized, StatusFail},
		{http.StatusBadRequest, StatusFail},
		{499, StatusFail},
		{http.StatusInternalServerError, StatusError},
		{http.StatusBadGateway, StatusError},
		{http.StatusOK, StatusError},
	}
	for _, c := range cases {
		e := New("boom", c.code)
		require.Equal(t, c.want, e.Status(), "code %d", c.code)
	}
}

func TestCarriesMessageAndCode(t *testing.T) {
	e := New("function not deployed", http.StatusNotFound)
	require.EqualError(t, e, "function not deployed")
	require.Equal(t, http.StatusNotFound, e.StatusCode)
	require.True(t, e.Operational())
}

func TestStackCaptured(t *testing.T) {
	e := New("boom", http.StatusBadGateway)
	require.NotEmpty(t, e.Stack())
	require.Contains(t, string(e.Stack()), "operr.TestStackCaptured")
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	inner := New("engine rejected call", http.StatusBadGateway)
	wrapped := fmt.Errorf("dispatch: %w", inner)

	oe, ok := As(wrapped)
	require.True(t, ok)
	require.Same(t, inner, oe)
	require.True(t, IsOperational(wrapped))

	require.False(t, IsOperational(errors.New("plain defect")))
}

func TestZeroStatusCodeDefaultsToServerError(t *testing.T) {
	e := New("boom", 0)
	require.Equal(t, http.StatusInternalServerError, e.StatusCode)
	require.Equal(t, StatusError, e.Status())
}
