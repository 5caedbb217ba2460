// Package auth provides bearer-token authentication for the HTTP API.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"regsync/pkg/identity"
	platformstrings "regsync/pkg/platform/strings"
)

// Claims are the token claims the API cares about.
type Claims struct {
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles"`
	jwt.RegisteredClaims
}

// Validator verifies HS256 bearer tokens against a shared signing key.
type Validator struct {
	signingKey []byte
}

// NewValidator creates a Validator for the given signing key.
func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token string, returning its claims.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

type contextKeyCaller struct{}

// GetCaller retrieves the authenticated caller from the context. The
// zero Identity is returned for unauthenticated contexts.
func GetCaller(ctx context.Context) identity.Identity {
	caller, ok := ctx.Value(contextKeyCaller{}).(identity.Identity)
	if !ok {
		return identity.Identity{}
	}
	return caller
}

// WithCaller injects a caller identity, used by tests and internal jobs.
func WithCaller(ctx context.Context, caller identity.Identity) context.Context {
	return context.WithValue(ctx, contextKeyCaller{}, caller)
}

// RequireAuth rejects requests without a valid bearer token and stores
// the caller identity in the request context.
func RequireAuth(validator *Validator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := cutBearer(header)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("unauthorized access", zap.Error(err))
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			caller := identity.Identity{
				DisplayName: claims.DisplayName,
				Roles:       platformstrings.DedupeAndTrim(claims.Roles),
			}
			if caller.DisplayName == "" {
				caller.DisplayName = claims.Subject
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// RequireRole rejects authenticated callers lacking the given role. Must
// be mounted after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := GetCaller(r.Context())
			if !platformstrings.Contains(caller.Roles, role) {
				writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func cutBearer(header string) (string, bool) {
	const prefix = "Bearer "
	return strings.CutPrefix(header, prefix)
}

func writeJSONError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":%q,"error_description":%q}`, code, desc)
}
