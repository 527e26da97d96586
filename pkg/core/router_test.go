package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joeydtaylor/polygate/pkg/correlation"
	manifest "github.com/joeydtaylor/polygate/pkg/manifest"
	httpx "github.com/joeydtaylor/polygate/pkg/transport/httpx"
)

func TestBuildRouterInprocRoute(t *testing.T) {
	Register("echo-upper", func(_ context.Context, in []byte) ([]byte, int, error) {
		return in, 0, nil
	})

	cfg := manifest.Config{Routes: []manifest.Route{{
		Path:    "/echo",
		Method:  http.MethodPost,
		Handler: manifest.HSpec{Type: manifest.HandlerInproc, Name: "echo-upper"},
	}}}
	require.NoError(t, cfg.Validate())

	srv := BuildRouter(cfg, BuildDeps{Router: httpx.NewChi(), Log: zap.NewNop()})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", bytesReader(`{"a":1}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"a":1}`, rec.Body.String())
}

func TestBuildRouterGuardWithoutAuth(t *testing.T) {
	Register("guarded", func(context.Context, []byte) ([]byte, int, error) {
		return []byte(`{}`), 0, nil
	})

	cfg := manifest.Config{Routes: []manifest.Route{{
		Path:    "/guarded",
		Method:  http.MethodPost,
		Guard:   manifest.Guard{RequireAuth: true},
		Handler: manifest.HSpec{Type: manifest.HandlerInproc, Name: "guarded"},
	}}}
	require.NoError(t, cfg.Validate())

	srv := BuildRouter(cfg, BuildDeps{Router: httpx.NewChi()})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/guarded", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuildRouterMountsCompletionEndpoint(t *testing.T) {
	reg := correlation.New()
	cfg := manifest.Config{Routes: []manifest.Route{{
		Path:    "/noop",
		Method:  http.MethodPost,
		Handler: manifest.HSpec{Type: manifest.HandlerInproc, Name: "echo-upper"},
	}}}
	require.NoError(t, cfg.Validate())

	srv := BuildRouter(cfg, BuildDeps{Router: httpx.NewChi(), Registry: reg, Log: zap.NewNop()})

	var got any
	id := reg.Register(func(v any) { got = v }, func(error) {})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/internal/completions/"+id, bytesReader(`{"result":{"done":true}}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"delivered":true}`, rec.Body.String())
	assert.NotNil(t, got)
}
