// pkg/serverfx/serverfx.go
package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/joeydtaylor/polygate/pkg/core"
	"github.com/joeydtaylor/polygate/pkg/correlation"
	"github.com/joeydtaylor/polygate/pkg/engine"
	"github.com/joeydtaylor/polygate/pkg/manifest"
	"github.com/joeydtaylor/polygate/pkg/middleware/auth"
	"github.com/joeydtaylor/polygate/pkg/middleware/logger"
	"github.com/joeydtaylor/polygate/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ---------- Options ----------

type Config struct {
	Service         string // for logs/metrics tags only
	ManifestEnv     string // e.g., POLYGATE_MANIFEST
	DefaultManifest string // e.g., "manifest.toml"
	ListenEnv       string // SERVER_LISTEN_ADDRESS
	TLSCertEnv      string // SSL_SERVER_CERTIFICATE
	TLSKeyEnv       string // SSL_SERVER_KEY
}

type Option func(*Config)

func WithService(s string) Option            { return func(c *Config) { c.Service = s } }
func WithManifestEnv(k string) Option        { return func(c *Config) { c.ManifestEnv = k } }
func WithDefaultManifest(path string) Option { return func(c *Config) { c.DefaultManifest = path } }
func WithListenEnv(k string) Option          { return func(c *Config) { c.ListenEnv = k } }
func WithTLSCertKeyEnv(cert, key string) Option {
	return func(c *Config) { c.TLSCertEnv, c.TLSKeyEnv = cert, key }
}

func defaultConfig() Config {
	return Config{
		Service:         "polygate",
		ManifestEnv:     "POLYGATE_MANIFEST",
		DefaultManifest: "manifest.toml",
		ListenEnv:       "SERVER_LISTEN_ADDRESS",
		TLSCertEnv:      "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:       "SSL_SERVER_KEY",
	}
}

// ---------- Engine providers ----------

func provideDispatcher() (engine.Dispatcher, error) {
	return engine.NewForwardDispatcherFromEnv()
}

func provideAudit() (*engine.KafkaAudit, error) {
	return engine.NewKafkaAuditFromEnv(context.Background())
}

// ---------- Router ----------

func provideRouter(
	cfg Config,
	a *auth.Middleware,
	lm *logger.Middleware,
	/* name:"metrics" */ m http.Handler,
	disp engine.Dispatcher,
	reg *correlation.Registry,
	audit *engine.KafkaAudit,
	r httpx.Router,
	zl *zap.Logger,
) http.Handler {
	cfgPath := envOr(cfg.ManifestEnv, cfg.DefaultManifest)
	man, err := core.LoadConfig(cfgPath)
	if err != nil {
		zl.Fatal("manifest load failed", zap.Error(err), zap.String("path", cfgPath))
	}

	// Fail-safety: warn if manifest has invoke routes but only the noop dispatcher.
	needsEngine := false
	for _, rt := range man.Routes {
		if rt.Handler.Type == manifest.HandlerInvoke {
			needsEngine = true
			break
		}
	}
	if needsEngine && os.Getenv("ENGINE_TARGET") == "" {
		zl.Error("invoke routes configured but no engine target",
			zap.String("ENGINE_TARGET", os.Getenv("ENGINE_TARGET")),
			zap.String("OAUTH_ISSUER_BASE", os.Getenv("OAUTH_ISSUER_BASE")),
			zap.String("OAUTH_CLIENT_ID", os.Getenv("OAUTH_CLIENT_ID")),
		)
	}

	return core.BuildRouter(man, core.BuildDeps{
		Auth:     a,
		LogMW:    lm,
		Metrics:  m,
		Dispatch: disp,
		Registry: reg,
		Audit:    audit,
		Router:   r,
		Log:      zl,
	})
}

// ---------- Lifecycle (completion receivers + HTTP server) ----------

type serverDeps struct {
	fx.In
	Logger   *zap.Logger
	App      http.Handler `name:"app"`
	Registry *correlation.Registry
	Audit    *engine.KafkaAudit
}

func registerHooks(lc fx.Lifecycle, cfg Config, d serverDeps) {
	addr := envOr(cfg.ListenEnv, ":4000")
	cert := os.Getenv(cfg.TLSCertEnv)
	key := os.Getenv(cfg.TLSKeyEnv)

	srv := &http.Server{
		Addr:         addr,
		Handler:      d.App,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13},
	}
	useTLS := fileExists(cert) && fileExists(key)

	// Load manifest once to boot completion receivers.
	cfgPath := envOr(cfg.ManifestEnv, cfg.DefaultManifest)
	man, err := core.LoadConfig(cfgPath)
	if err != nil {
		d.Logger.Fatal("manifest load failed", zap.Error(err), zap.String("path", cfgPath))
	}

	deliver := core.NewCompletionDeliverer(d.Registry, d.Audit, d.Logger)
	recvCtx, recvCancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// Boot completion receivers (non-blocking fan-out).
			go func() {
				for _, cc := range man.Completions {
					buf := cc.BufferSize
					if buf <= 0 {
						buf = 1024
					}
					address := cc.Address
					var tlsOv *engine.ReceiverTLS
					if cc.TLS != nil {
						tlsOv = &engine.ReceiverTLS{
							Enable:     cc.TLS.Enable,
							ServerCert: cc.TLS.ServerCert,
							ServerKey:  cc.TLS.ServerKey,
							CA:         cc.TLS.CA,
							ServerName: cc.TLS.ServerName,
						}
					}

					go func(address string, buffer int, tlsOv *engine.ReceiverTLS) {
						stop, err := engine.StartCompletionReceiverFromEnv(recvCtx, address, buffer,
							func(c engine.Completion) { deliver(c) }, tlsOv)
						if err != nil {
							d.Logger.Error("completion receiver start failed",
								zap.String("address", address),
								zap.Error(err),
							)
							return
						}
						d.Logger.Info("completion receiver started", zap.String("address", address))
						go func() {
							<-recvCtx.Done()
							if stop != nil {
								stop()
							}
						}()
					}(address, buf, tlsOv)
				}
			}()

			// Start HTTP server.
			if useTLS {
				d.Logger.Info("server starting (TLS)",
					zap.String("service", cfg.Service),
					zap.String("addr", addr),
					zap.String("cert", cert),
				)
				go func() {
					if err := srv.ListenAndServeTLS(cert, key); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			} else {
				d.Logger.Info("server starting (PLAINTEXT)",
					zap.String("service", cfg.Service),
					zap.String("addr", addr),
				)
				go func() {
					srv.TLSConfig = nil
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping", zap.String("service", cfg.Service))
			recvCancel()
			d.Audit.Stop()
			return srv.Shutdown(ctx)
		},
	})
}

// ---------- tiny helpers ----------

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
