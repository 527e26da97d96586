// pkg/engine/forward.go
package engine

// Dispatcher implemented with Electrician builder primitives. Internals are
// hidden: no builder.* types are stored on the struct. Adds optional TLS,
// compression, encryption, static headers, and OAuth2 CC.

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/joeydtaylor/electrician/pkg/builder"

	"github.com/joeydtaylor/polygate/pkg/codec"
)

type forwardDispatcher struct {
	once   sync.Once
	start  error
	submit func(context.Context, []byte) error // captures wire.Submit
}

// NewForwardDispatcherFromEnv returns a Dispatcher powered by Electrician's
// ForwardRelay[[]byte]. It expects:
//
//	ENGINE_TARGET               = "host:port[,host2:port2]"   (required)
//
// Optional features (all off by default):
//
//	ENGINE_TLS_ENABLE           = "true" | "false"
//	ENGINE_TLS_CLIENT_CRT       = path (default: keys/tls/client.crt)
//	ENGINE_TLS_CLIENT_KEY       = path (default: keys/tls/client.key)
//	ENGINE_TLS_CA               = path (default: keys/tls/ca.crt)
//	ENGINE_TLS_INSECURE         = "true" | "false"  (dev only; for OAuth HTTP client)
//
//	ENGINE_COMPRESS             = "snappy" | ""
//	ENGINE_ENCRYPT              = "aesgcm" | ""
//	ENGINE_AES256_KEY_HEX       = 64 hex chars (32 bytes)
//
//	ENGINE_STATIC_HEADERS       = "k=v,k2=v2"
//
// OAuth2 client credentials (optional; all must be set to enable):
//
//	OAUTH_ISSUER_BASE, OAUTH_CLIENT_ID, OAUTH_CLIENT_SECRET
//	OAUTH_JWKS_URL, OAUTH_SCOPES, OAUTH_REFRESH_LEEWAY
//
// If ENGINE_TARGET is absent, it returns the noop Dispatcher.
func NewForwardDispatcherFromEnv() (Dispatcher, error) {
	f, err := loadForwardEnv()
	if err != nil {
		return nil, err
	}
	if len(f.targets) == 0 {
		return noopDispatcher{}, nil
	}

	logger := builder.NewLogger(builder.LoggerWithDevelopment(true))

	// Build internals (not stored on the struct; captured by closures).
	ctx := context.Background()
	wire := builder.NewWire[[]byte](ctx, builder.WireWithLogger[[]byte](logger))

	perf := builder.NewPerformanceOptions(f.useSnappy, builder.COMPRESS_SNAPPY)
	sec := builder.NewSecurityOptions(f.useAESGCM, builder.ENCRYPTION_AES_GCM)
	tlsCfg := builder.NewTlsClientConfig(
		f.useTLS,
		f.tlsCrt, f.tlsKey, f.tlsCA,
		tls.VersionTLS13, tls.VersionTLS13,
	)

	var relayStart func(context.Context) error

	if f.oauthEnabled {
		authOpts := builder.NewForwardRelayAuthenticationOptionsOAuth2(nil)
		if f.jwks != "" {
			authOpts = builder.NewForwardRelayAuthenticationOptionsOAuth2(
				builder.NewForwardRelayOAuth2JWTOptions(f.issuer, f.jwks, []string{}, f.scopes, 300),
			)
		}

		authHTTP := &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS13,
					MaxVersion:         tls.VersionTLS13,
					InsecureSkipVerify: f.tlsInsecure, // dev only
				},
			},
		}

		// Token warmup is best-effort; the relay surfaces real config errors.
		preflightTimeout := parseDur(envOr("OAUTH_PREFLIGHT_TIMEOUT", "8s"))
		_ = preflightOAuthToken(ctx, authHTTP, f.issuer, f.clientID, f.clientSecret, f.scopes, preflightTimeout)

		ts := builder.NewForwardRelayRefreshingClientCredentialsSource(
			f.issuer, f.clientID, f.clientSecret, f.scopes, f.leeway, authHTTP,
		)

		relay := builder.NewForwardRelay[[]byte](
			ctx,
			builder.ForwardRelayWithLogger[[]byte](logger),
			builder.ForwardRelayWithTarget[[]byte](f.targets...),
			builder.ForwardRelayWithPerformanceOptions[[]byte](perf),
			builder.ForwardRelayWithSecurityOptions[[]byte](sec, f.aesKey),
			builder.ForwardRelayWithTLSConfig[[]byte](tlsCfg),
			builder.ForwardRelayWithStaticHeaders[[]byte](f.staticHeaders),
			builder.ForwardRelayWithAuthenticationOptions[[]byte](authOpts),
			builder.ForwardRelayWithOAuthBearer[[]byte](ts),
			builder.ForwardRelayWithInput(wire),
		)
		relayStart = relay.Start
	} else {
		relay := builder.NewForwardRelay[[]byte](
			ctx,
			builder.ForwardRelayWithLogger[[]byte](logger),
			builder.ForwardRelayWithTarget[[]byte](f.targets...),
			builder.ForwardRelayWithPerformanceOptions[[]byte](perf),
			builder.ForwardRelayWithSecurityOptions[[]byte](sec, f.aesKey),
			builder.ForwardRelayWithTLSConfig[[]byte](tlsCfg),
			builder.ForwardRelayWithStaticHeaders[[]byte](f.staticHeaders),
			builder.ForwardRelayWithInput(wire),
		)
		relayStart = relay.Start
	}

	d := &forwardDispatcher{
		submit: func(ctx context.Context, b []byte) error { return wire.Submit(ctx, b) },
	}
	d.once.Do(func() {
		if err := wire.Start(ctx); err != nil {
			d.start = fmt.Errorf("engine wire start: %w", err)
			return
		}
		if err := relayStart(ctx); err != nil {
			d.start = fmt.Errorf("engine relay start: %w", err)
			return
		}
	})
	if d.start != nil {
		return nil, d.start
	}
	return d, nil
}

// Dispatch encodes the invocation envelope and submits it into the pipeline.
func (d *forwardDispatcher) Dispatch(ctx context.Context, inv Invocation) error {
	if inv.ID == "" {
		return fmt.Errorf("engine: missing correlation identifier")
	}
	if inv.Topic == "" {
		return fmt.Errorf("engine: missing topic")
	}
	if d.start != nil {
		return d.start
	}
	b, err := codec.JSON.Marshal(inv)
	if err != nil {
		return fmt.Errorf("engine: encode invocation: %w", err)
	}
	return d.submit(ctx, b)
}
