package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims are the claims extracted from a validated issuer token.
type JWTClaims struct {
	Subject string
	Issuer  string
}

// JWTValidator validates bearer tokens presented on issuer endpoints.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// HMACValidator validates HS256-signed tokens with a shared signing key.
type HMACValidator struct {
	key []byte
}

func NewHMACValidator(key []byte) *HMACValidator {
	return &HMACValidator{key: key}
}

func (v *HMACValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return &JWTClaims{Subject: claims.Subject, Issuer: claims.Issuer}, nil
}

type contextKeySubject struct{}

// GetSubject retrieves the authenticated token subject from the context.
func GetSubject(ctx context.Context) string {
	subject, ok := ctx.Value(contextKeySubject{}).(string)
	if !ok {
		return ""
	}
	return subject
}

// RequireAuth guards issuer endpoints with bearer token authentication.
// Reveal and status endpoints stay public; only issuance and revocation
// run behind this middleware.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				writeUnauthorized(w, "Missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeySubject{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
