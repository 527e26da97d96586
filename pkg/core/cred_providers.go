// pkg/core/cred_providers.go
package core

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	manifest "github.com/joeydtaylor/polygate/pkg/manifest"
	"github.com/joeydtaylor/polygate/pkg/middleware/auth"
)

type NoAuthProvider struct{}

func (NoAuthProvider) Issue(context.Context, *http.Request, manifest.Route) (DownstreamCredentials, error) {
	return DownstreamCredentials{}, nil
}

type PassthroughCookieProvider struct {
	CookieName string
	HeaderName string // default: "Cookie"
}

func (p PassthroughCookieProvider) Issue(_ context.Context, r *http.Request, _ manifest.Route) (DownstreamCredentials, error) {
	if p.HeaderName == "" {
		p.HeaderName = "Cookie"
	}
	if p.CookieName == "" {
		return DownstreamCredentials{}, nil
	}
	c, err := r.Cookie(p.CookieName)
	if err != nil || c == nil || c.Value == "" {
		return DownstreamCredentials{}, nil
	}
	return DownstreamCredentials{
		HeaderName:  p.HeaderName,
		HeaderValue: fmt.Sprintf("%s=%s", p.CookieName, c.Value),
	}, nil
}

type StaticBearerProvider struct {
	HeaderName string // default: "Authorization"
	EnvVar     string // default: ENGINE_STATIC_BEARER
}

func (p StaticBearerProvider) Issue(_ context.Context, _ *http.Request, _ manifest.Route) (DownstreamCredentials, error) {
	h := p.HeaderName
	if h == "" {
		h = "Authorization"
	}
	env := p.EnvVar
	if env == "" {
		env = "ENGINE_STATIC_BEARER"
	}
	val := os.Getenv(env)
	if val == "" {
		return DownstreamCredentials{}, nil
	}
	if !strings.HasPrefix(val, "Bearer ") {
		val = "Bearer " + val
	}
	return DownstreamCredentials{HeaderName: h, HeaderValue: val}, nil
}

// TokenExchangeProvider forwards the authenticated principal as headers the
// engine runtime can trust over a mutually authenticated link. A full
// token-exchange flow against the issuer would replace this.
type TokenExchangeProvider struct {
	Auth *auth.Middleware
}

func (p TokenExchangeProvider) Issue(_ context.Context, r *http.Request, route manifest.Route) (DownstreamCredentials, error) {
	if p.Auth == nil {
		return DownstreamCredentials{}, nil
	}
	u := p.Auth.GetUser(r.Context())
	if u.Username == "" {
		return DownstreamCredentials{}, nil
	}
	extra := map[string]string{"X-Forwarded-Role": u.Role.Name}
	if da := route.Policy.DownAuth; da != nil && da.Audience != "" {
		extra["X-Forwarded-Audience"] = da.Audience
	}
	return DownstreamCredentials{
		HeaderName:  "X-Forwarded-User",
		HeaderValue: u.Username,
		Extra:       extra,
	}, nil
}
