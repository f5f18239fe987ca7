package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// signToken builds an HS256 token for tests.
func signToken(t *testing.T, secret []byte, cl claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func validClaims() claims {
	return claims{
		UserID: 7,
		Email:  "owner@example.com",
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerify_ValidToken(t *testing.T) {
	// Arrange
	cfg := Config{Secret: testSecret}
	token := signToken(t, testSecret, validClaims())

	// Act
	id, err := cfg.Verify(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.UserID)
	assert.Equal(t, "owner@example.com", id.Email)
	assert.False(t, id.IsAdmin())
}

func TestVerify_Rejections(t *testing.T) {
	cfg := Config{Secret: testSecret}

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noUser := validClaims()
	noUser.UserID = 0

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage token", token: "not-a-jwt"},
		{name: "wrong secret", token: signToken(t, []byte("another-secret-another-secret-32"), validClaims())},
		{name: "expired token", token: signToken(t, testSecret, expired)},
		{name: "missing user_id claim", token: signToken(t, testSecret, noUser)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cfg.Verify(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestMiddleware_PutsIdentityInContext(t *testing.T) {
	// Arrange
	cfg := Config{Secret: testSecret}
	var got Identity
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
	rec := httptest.NewRecorder()

	// Act
	handler.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(7), got.UserID)
}

func TestMiddleware_MissingOrBadToken(t *testing.T) {
	cfg := Config{Secret: testSecret}
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for unauthenticated requests")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty bearer", header: "Bearer "},
		{name: "invalid token", header: "Bearer garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: 1, Role: "admin"}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("non-admin gets 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: 7, Role: "user"}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("valid secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", string(testSecret))

		cfg, err := ConfigFromEnv()

		require.NoError(t, err)
		assert.Equal(t, testSecret, cfg.Secret)
	})

	t.Run("short secret rejected", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "short")

		_, err := ConfigFromEnv()

		assert.Error(t, err)
	})
}
