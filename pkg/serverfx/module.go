// pkg/serverfx/module.go
package serverfx

import (
	"github.com/joeydtaylor/polygate/pkg/correlation"
	"github.com/joeydtaylor/polygate/pkg/middleware/auth"
	"github.com/joeydtaylor/polygate/pkg/middleware/logger"
	"github.com/joeydtaylor/polygate/pkg/middleware/metrics"
	"github.com/joeydtaylor/polygate/pkg/transport/httpx"
	"go.uber.org/fx"
)

// Module returns a complete Fx option set; add app-specific fx.Invoke(...) alongside.
func Module(opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		// Core middleware
		auth.Module,
		logger.Module,
		fx.Provide(fx.Annotate(metrics.ProvideMetrics, fx.ResultTags(`name:"metrics"`))),
		// Router impl
		fx.Provide(httpx.NewChi),
		// Config into DI
		fx.Provide(func() Config { return cfg }),
		// Correlation registry and engine boundary
		fx.Provide(correlation.New),
		fx.Provide(provideDispatcher),
		fx.Provide(provideAudit),
		// Router (named "app")
		fx.Provide(fx.Annotate(
			provideRouter,
			fx.ParamTags(``, ``, ``, `name:"metrics"`, ``, ``, ``, ``, ``),
			fx.ResultTags(`name:"app"`),
		)),
		// Lifecycle
		fx.Invoke(registerHooks),
	)
}
