package core

import (
	"net/http"

	"github.com/joeydtaylor/polygate/pkg/correlation"
	"github.com/joeydtaylor/polygate/pkg/engine"
	"github.com/joeydtaylor/polygate/pkg/middleware/auth"
	"github.com/joeydtaylor/polygate/pkg/middleware/logger"
	httpx "github.com/joeydtaylor/polygate/pkg/transport/httpx"
	"go.uber.org/zap"
)

type BuildDeps struct {
	Auth     *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  http.Handler
	Dispatch engine.Dispatcher
	Registry *correlation.Registry
	Audit    *engine.KafkaAudit
	Deliver  func(engine.Completion) bool
	Router   httpx.Router
	Creds    CredentialsProvider
	Log      *zap.Logger
}
