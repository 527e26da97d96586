// pkg/engine/env.go
package engine

import (
	"encoding/hex"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDurMs(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}

func parseKV(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := map[string]string{}
	for _, kv := range strings.Split(s, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		p := strings.SplitN(kv, "=", 2)
		if len(p) == 2 {
			out[strings.TrimSpace(p[0])] = strings.TrimSpace(p[1])
		}
	}
	return out
}

func parseDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	if d == 0 {
		d = 20 * time.Second
	}
	return d
}

// forwardEnv holds all inputs used to configure the outbound (dispatch) hop.
type forwardEnv struct {
	targets       []string
	useTLS        bool
	tlsCrt        string
	tlsKey        string
	tlsCA         string
	tlsInsecure   bool
	useSnappy     bool
	useAESGCM     bool
	aesKey        string // string([]byte(32)) for builder API
	staticHeaders map[string]string

	// OAuth2 CC
	issuer       string
	jwks         string
	clientID     string
	clientSecret string
	scopes       []string
	leeway       time.Duration
	oauthEnabled bool
}

func loadForwardEnv() (forwardEnv, error) {
	f := forwardEnv{
		targets:       splitCSV(os.Getenv("ENGINE_TARGET")),
		useTLS:        strings.EqualFold(os.Getenv("ENGINE_TLS_ENABLE"), "true"),
		tlsCrt:        envOr("ENGINE_TLS_CLIENT_CRT", "keys/tls/client.crt"),
		tlsKey:        envOr("ENGINE_TLS_CLIENT_KEY", "keys/tls/client.key"),
		tlsCA:         envOr("ENGINE_TLS_CA", "keys/tls/ca.crt"),
		tlsInsecure:   strings.EqualFold(os.Getenv("ENGINE_TLS_INSECURE"), "true"),
		useSnappy:     strings.EqualFold(os.Getenv("ENGINE_COMPRESS"), "snappy"),
		useAESGCM:     strings.EqualFold(os.Getenv("ENGINE_ENCRYPT"), "aesgcm"),
		staticHeaders: parseKV(os.Getenv("ENGINE_STATIC_HEADERS")),

		issuer:       strings.TrimSpace(os.Getenv("OAUTH_ISSUER_BASE")),
		jwks:         strings.TrimSpace(os.Getenv("OAUTH_JWKS_URL")),
		clientID:     strings.TrimSpace(os.Getenv("OAUTH_CLIENT_ID")),
		clientSecret: strings.TrimSpace(os.Getenv("OAUTH_CLIENT_SECRET")),
		scopes:       splitCSV(os.Getenv("OAUTH_SCOPES")),
		leeway:       parseDur(envOr("OAUTH_REFRESH_LEEWAY", "20s")),
	}
	f.oauthEnabled = f.issuer != "" && f.clientID != "" && f.clientSecret != ""

	if f.useAESGCM {
		k := strings.TrimSpace(os.Getenv("ENGINE_AES256_KEY_HEX"))
		raw, err := hex.DecodeString(k)
		if err != nil || len(raw) != 32 {
			return forwardEnv{}, errors.New("engine: ENGINE_AES256_KEY_HEX must be 64 hex chars (32 bytes)")
		}
		f.aesKey = string(raw)
	}
	return f, nil
}

// receiverEnv holds inputs used to configure the completion listener.
type receiverEnv struct {
	rxTLSEnable bool
	rxCrt       string
	rxKey       string
	rxCA        string
	rxName      string
	decKey      string // string([]byte(32)) for builder API
	jwks        string
	issuer      string
	scopes      []string
}

func loadReceiverEnv() (receiverEnv, error) {
	r := receiverEnv{
		rxTLSEnable: strings.EqualFold(os.Getenv("ENGINE_RX_TLS_ENABLE"), "true"),
		rxCrt:       envOr("ENGINE_RX_TLS_SERVER_CRT", "keys/tls/server.crt"),
		rxKey:       envOr("ENGINE_RX_TLS_SERVER_KEY", "keys/tls/server.key"),
		rxCA:        envOr("ENGINE_RX_TLS_CA", "keys/tls/ca.crt"),
		rxName:      os.Getenv("ENGINE_RX_TLS_SERVER_NAME"),
		jwks:        strings.TrimSpace(os.Getenv("OAUTH_JWKS_URL")),
		issuer:      strings.TrimSpace(os.Getenv("OAUTH_ISSUER_BASE")),
		scopes:      splitCSV(os.Getenv("OAUTH_SCOPES")),
	}
	if k := strings.TrimSpace(os.Getenv("ENGINE_AES256_KEY_HEX")); k != "" {
		raw, e := hex.DecodeString(k)
		if e != nil || len(raw) != 32 {
			return receiverEnv{}, errors.New("engine: ENGINE_AES256_KEY_HEX must be 64 hex chars (32 bytes)")
		}
		r.decKey = string(raw)
	}
	return r, nil
}
