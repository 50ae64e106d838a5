package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test-signing-key"

func signToken(t *testing.T, key string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "registrar@university.example",
		Issuer:    "tempora-test",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func protected(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var capturedSubject string
	validator := NewHMACValidator([]byte(testSigningKey))
	handler := RequireAuth(validator, slog.New(slog.DiscardHandler))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedSubject = GetSubject(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
	return handler, &capturedSubject
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid token passes and exposes the subject", func(t *testing.T) {
		handler, subject := protected(t)

		req := httptest.NewRequest(http.MethodPost, "/api/credentials/issue", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSigningKey, time.Hour))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "registrar@university.example", *subject)
	})

	t.Run("missing header", func(t *testing.T) {
		handler, _ := protected(t)

		req := httptest.NewRequest(http.MethodPost, "/api/credentials/issue", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		handler, _ := protected(t)

		req := httptest.NewRequest(http.MethodPost, "/api/credentials/issue", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "some-other-key", time.Hour))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		handler, _ := protected(t)

		req := httptest.NewRequest(http.MethodPost, "/api/credentials/issue", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSigningKey, -time.Hour))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed bearer value", func(t *testing.T) {
		handler, _ := protected(t)

		req := httptest.NewRequest(http.MethodPost, "/api/credentials/issue", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestClientMetadata(t *testing.T) {
	var captured ClientInfo
	handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetClientInfo(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/credentials", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "Chrome", captured.Browser)
	assert.NotEmpty(t, captured.OS)
	assert.False(t, captured.Mobile)
}
