// core/cred.go
package core

import (
	"context"
	"net/http"

	manifest "github.com/joeydtaylor/polygate/pkg/manifest"
)

// DownstreamCredentials are the headers attached to a dispatched invocation so
// the engine-side runtime can act on the caller's behalf.
type DownstreamCredentials struct {
	HeaderName  string
	HeaderValue string
	Extra       map[string]string
}

type CredentialsProvider interface {
	Issue(ctx context.Context, r *http.Request, route manifest.Route) (DownstreamCredentials, error)
}
