package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const userKey ctxKey = 0

// Middleware verifies bearer tokens and exposes the authenticated principal
// through the request context. Verification failures do not terminate the
// request; routes decide via guards whether an anonymous caller is acceptable.
type Middleware struct {
	keyFunc   jwt.Keyfunc
	methods   []string
	adminRole string
	issuer    string
	audience  string
	leeway    time.Duration
	devBypass bool
}

// Middleware returns the http middleware that resolves the caller.
func (m *Middleware) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.devBypass {
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), User{
					Username:             "dev",
					Role:                 Role{Name: m.adminRole},
					AuthenticationSource: AuthenticationSource{Provider: "dev-bypass"},
				})))
				return
			}
			if u, ok := m.verify(r); ok {
				r = r.WithContext(withUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) verify(r *http.Request) (User, bool) {
	if m.keyFunc == nil {
		return User{}, false
	}
	raw := bearerToken(r)
	if raw == "" {
		return User{}, false
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(m.methods),
		jwt.WithLeeway(m.leeway),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, m.keyFunc, opts...)
	if err != nil || !tok.Valid {
		return User{}, false
	}

	u := User{}
	if v, ok := claims["username"].(string); ok && v != "" {
		u.Username = v
	} else if v, ok := claims["sub"].(string); ok {
		u.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		u.Role.Name = v
	}
	if v, ok := claims["iss"].(string); ok {
		u.AuthenticationSource.Provider = v
	}
	if u.Username == "" {
		return User{}, false
	}
	return u, true
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func withUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUser returns the authenticated principal, or the zero User.
func (m *Middleware) GetUser(ctx context.Context) User {
	if u, ok := ctx.Value(userKey).(User); ok {
		return u
	}
	return User{}
}

// IsAuthenticated reports whether a verified principal is on the context.
func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	return m.GetUser(ctx).Username != ""
}

// IsAdmin reports whether the principal holds the configured admin role.
func (m *Middleware) IsAdmin(ctx context.Context) bool {
	if m.adminRole == "" {
		return false
	}
	return m.GetUser(ctx).Role.Name == m.adminRole
}
