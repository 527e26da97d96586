package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ProvideAuthentication wires defaults and env config.
//
//	AUTH_JWT_SECRET        HS256 shared secret (takes precedence)
//	AUTH_JWT_PUBLIC_KEY    path to an RSA public key PEM (RS256)
//	AUTH_ISSUER            expected iss claim (optional)
//	AUTH_AUDIENCE          expected aud claim (optional)
//	AUTH_LEEWAY_SECONDS    clock skew allowance, default 60
//	ADMIN_ROLE_NAME        role treated as admin by guards
//	AUTH_DEV_BYPASS        "true" authenticates everyone as an admin dev user
func ProvideAuthentication() *Middleware {
	leeway := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("AUTH_LEEWAY_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			leeway = time.Duration(n) * time.Second
		}
	}

	m := &Middleware{
		adminRole: os.Getenv("ADMIN_ROLE_NAME"),
		issuer:    strings.TrimSpace(os.Getenv("AUTH_ISSUER")),
		audience:  strings.TrimSpace(os.Getenv("AUTH_AUDIENCE")),
		leeway:    leeway,
		devBypass: os.Getenv("AUTH_DEV_BYPASS") == "true",
	}

	if secret := os.Getenv("AUTH_JWT_SECRET"); secret != "" {
		key := []byte(secret)
		m.methods = []string{"HS256"}
		m.keyFunc = func(*jwt.Token) (any, error) { return key, nil }
		return m
	}

	if path := strings.TrimSpace(os.Getenv("AUTH_JWT_PUBLIC_KEY")); path != "" {
		pem, err := os.ReadFile(path)
		if err == nil {
			if pub, perr := jwt.ParseRSAPublicKeyFromPEM(pem); perr == nil {
				m.methods = []string{"RS256"}
				m.keyFunc = func(*jwt.Token) (any, error) { return pub, nil }
				return m
			}
		}
		// Misconfigured key material: run unauthenticated rather than half-verified.
		m.keyFunc = func(*jwt.Token) (any, error) {
			return nil, fmt.Errorf("auth: verification key unavailable")
		}
	}

	return m
}
