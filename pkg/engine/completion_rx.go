// pkg/engine/completion_rx.go
package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joeydtaylor/electrician/pkg/builder"

	"github.com/joeydtaylor/polygate/pkg/codec"
)

// ReceiverTLS overrides the ENGINE_RX_TLS_* env for one listener, letting each
// manifest completion channel carry its own certificates.
type ReceiverTLS struct {
	Enable     bool
	ServerCert string
	ServerKey  string
	CA         string
	ServerName string
}

// StartCompletionReceiverFromEnv wires ReceivingRelay[[]byte] -> Wire[[]byte]
// whose single pipeline step decodes Completion envelopes and hands them to
// deliver. The engine presents only identifier + outcome on this channel; what
// deliver does with a completion (settle, drop as late/duplicate) is the
// caller's concern.
//
// Receive env:
//
//	ENGINE_RX_TLS_ENABLE, ENGINE_RX_TLS_SERVER_CRT, ENGINE_RX_TLS_SERVER_KEY,
//	ENGINE_RX_TLS_CA, ENGINE_RX_TLS_SERVER_NAME, ENGINE_AES256_KEY_HEX
//	OAUTH_JWKS_URL, OAUTH_ISSUER_BASE, OAUTH_SCOPES (JWT-protected channel when JWKS set)
func StartCompletionReceiverFromEnv(ctx context.Context, address string, buffer int, deliver func(Completion), tlsOverride *ReceiverTLS) (stop func(), err error) {
	if strings.TrimSpace(address) == "" {
		return nil, errors.New("completion receiver: address required")
	}
	if deliver == nil {
		return nil, errors.New("completion receiver: deliver required")
	}
	if buffer <= 0 {
		buffer = 1024
	}

	rx, err := loadReceiverEnv()
	if err != nil {
		return nil, err
	}
	if tlsOverride != nil {
		rx.rxTLSEnable = tlsOverride.Enable
		rx.rxCrt = tlsOverride.ServerCert
		rx.rxKey = tlsOverride.ServerKey
		rx.rxCA = tlsOverride.CA
		rx.rxName = tlsOverride.ServerName
	}

	logger := builder.NewLogger(builder.LoggerWithDevelopment(true))

	// Decode-and-deliver as the wire's single transform step. Malformed
	// envelopes are dropped here with an error so the relay logs them.
	decode := func(b []byte) ([]byte, error) {
		var c Completion
		if err := codec.JSON.Unmarshal(b, &c); err != nil {
			return b, fmt.Errorf("completion envelope: %w", err)
		}
		if c.ID == "" {
			return b, errors.New("completion envelope: missing id")
		}
		deliver(c)
		return b, nil
	}

	wire := builder.NewWire[[]byte](
		ctx,
		builder.WireWithLogger[[]byte](logger),
		builder.WireWithTransformer[[]byte](decode),
	)

	tlsSrv := builder.NewTlsServerConfig(
		rx.rxTLSEnable,
		rx.rxCrt, rx.rxKey, rx.rxCA, rx.rxName,
		tls.VersionTLS13, tls.VersionTLS13,
	)

	var receiverStart func(context.Context) error
	var receiverStop func()

	if rx.jwks != "" {
		oauth := builder.NewReceivingRelayMergeOAuth2Options(
			builder.NewReceivingRelayOAuth2JWTOptions(
				rx.issuer, rx.jwks, splitCSV(os.Getenv("OAUTH_REQUIRED_AUD")), rx.scopes, 300,
			),
			nil,
		)
		auth := builder.NewReceivingRelayAuthenticationOptionsOAuth2(oauth)
		r := builder.NewReceivingRelay[[]byte](
			ctx,
			builder.ReceivingRelayWithAddress[[]byte](address),
			builder.ReceivingRelayWithBufferSize[[]byte](uint32(buffer)),
			builder.ReceivingRelayWithLogger[[]byte](logger),
			builder.ReceivingRelayWithOutput(wire),
			builder.ReceivingRelayWithTLSConfig[[]byte](tlsSrv),
			builder.ReceivingRelayWithDecryptionKey[[]byte](rx.decKey),
			builder.ReceivingRelayWithAuthenticationOptions[[]byte](auth),
		)
		receiverStart, receiverStop = r.Start, r.Stop
	} else {
		r := builder.NewReceivingRelay[[]byte](
			ctx,
			builder.ReceivingRelayWithAddress[[]byte](address),
			builder.ReceivingRelayWithBufferSize[[]byte](uint32(buffer)),
			builder.ReceivingRelayWithLogger[[]byte](logger),
			builder.ReceivingRelayWithOutput(wire),
			builder.ReceivingRelayWithTLSConfig[[]byte](tlsSrv),
			builder.ReceivingRelayWithDecryptionKey[[]byte](rx.decKey),
		)
		receiverStart, receiverStop = r.Start, r.Stop
	}

	if err := wire.Start(ctx); err != nil {
		return nil, err
	}
	if err := receiverStart(ctx); err != nil {
		wire.Stop()
		return nil, err
	}

	return func() {
		receiverStop()
		wire.Stop()
	}, nil
}
