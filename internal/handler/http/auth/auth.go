// Package auth verifies bearer tokens and exposes the authenticated identity
// through the request context. Token issuance lives elsewhere; this package
// only validates HS256-signed tokens carrying user_id, email, and role claims.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"hookrelay/internal/handler/http/respond"
)

// Identity is the authenticated principal extracted from a verified token.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}

type contextKey string

const identityContextKey contextKey = "auth_identity"

// FromContext retrieves the authenticated identity from the context.
// The second return value is false on unauthenticated requests.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}

// WithIdentity adds an identity to the context. Exposed for handler tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// Config holds the token verification settings.
type Config struct {
	// Secret is the HS256 signing key shared with the token issuer.
	Secret []byte
}

// ConfigFromEnv loads the verification config from JWT_SECRET.
func ConfigFromEnv() (Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET not set")
	}
	if len(secret) < 32 {
		return Config{}, errors.New("JWT_SECRET must be at least 32 bytes")
	}
	return Config{Secret: []byte(secret)}, nil
}

// claims is the expected token payload.
type claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// errInvalidToken is what every verification failure collapses to. The real
// cause is logged server-side; clients get no oracle to probe.
var errInvalidToken = errors.New("invalid or missing token")

// Verify parses and validates a raw bearer token string.
func (c Config) Verify(tokenString string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Identity{}, fmt.Errorf("Verify: %w", err)
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Identity{}, fmt.Errorf("Verify: %w", errInvalidToken)
	}
	if cl.UserID <= 0 {
		return Identity{}, fmt.Errorf("Verify: missing user_id claim")
	}

	return Identity{UserID: cl.UserID, Email: cl.Email, Role: cl.Role}, nil
}

// Middleware returns middleware that requires a valid bearer token and puts
// the resulting identity into the request context. Requests without a valid
// token get 401 with a WWW-Authenticate challenge.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			id, err := cfg.Verify(token)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns middleware that rejects non-admin identities with 403.
// Must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if !id.IsAdmin() {
			respond.Error(w, http.StatusForbidden, errors.New("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from the Authorization header. The scheme
// comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="hookrelay"`)
	respond.Error(w, http.StatusUnauthorized, errInvalidToken)
}
