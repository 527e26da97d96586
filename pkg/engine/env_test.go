package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"a", "b"}, splitCSV("a, b"))
	assert.Equal(t, []string{"a"}, splitCSV(",a,,"))
}

func TestParseKV(t *testing.T) {
	assert.Nil(t, parseKV(""))
	assert.Equal(t, map[string]string{"x-app": "gw", "x-env": "prod"},
		parseKV(" x-app=gw , x-env=prod ,bogus"))
}

func TestEnvDurMs(t *testing.T) {
	t.Setenv("D", "1500")
	assert.Equal(t, 1500*time.Millisecond, envDurMs("D", time.Second))
	t.Setenv("D", "nope")
	assert.Equal(t, time.Second, envDurMs("D", time.Second))
}

func TestLoadForwardEnvAESKeyValidation(t *testing.T) {
	t.Setenv("ENGINE_ENCRYPT", "aesgcm")
	t.Setenv("ENGINE_AES256_KEY_HEX", "deadbeef")
	_, err := loadForwardEnv()
	require.Error(t, err)

	t.Setenv("ENGINE_AES256_KEY_HEX", strings.Repeat("ab", 32))
	f, err := loadForwardEnv()
	require.NoError(t, err)
	assert.Len(t, f.aesKey, 32)
}

func TestLoadForwardEnvOAuthGating(t *testing.T) {
	t.Setenv("OAUTH_ISSUER_BASE", "https://sso.example.com")
	t.Setenv("OAUTH_CLIENT_ID", "gw")
	f, err := loadForwardEnv()
	require.NoError(t, err)
	assert.False(t, f.oauthEnabled, "secret missing")

	t.Setenv("OAUTH_CLIENT_SECRET", "s3cr3t")
	f, err = loadForwardEnv()
	require.NoError(t, err)
	assert.True(t, f.oauthEnabled)
}

func TestCompletionFailed(t *testing.T) {
	assert.False(t, Completion{ID: "a", Result: json.RawMessage(`{}`)}.Failed())
	assert.True(t, Completion{ID: "a", Error: &CompletionError{Message: "x"}}.Failed())
}

func TestNoopDispatcherRejects(t *testing.T) {
	err := NewNoopDispatcher().Dispatch(context.Background(), Invocation{ID: "a", Topic: "t"})
	assert.ErrorIs(t, err, ErrNoDispatcher)
}
