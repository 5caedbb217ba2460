package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"regsync/pkg/identity"
)

const testSigningKey = "test-signing-key"

type AuthSuite struct {
	suite.Suite
	validator *Validator
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	s.validator = NewValidator(testSigningKey)
}

func (s *AuthSuite) signToken(claims Claims, key string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	s.Require().NoError(err)
	return signed
}

func (s *AuthSuite) operatorClaims() Claims {
	return Claims{
		DisplayName: "operator",
		Roles:       []string{"sysadmin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func (s *AuthSuite) TestValidateToken() {
	s.Run("valid token round-trips claims", func() {
		signed := s.signToken(s.operatorClaims(), testSigningKey)

		claims, err := s.validator.ValidateToken(signed)
		s.Require().NoError(err)
		s.Equal("operator", claims.DisplayName)
		s.Equal([]string{"sysadmin"}, claims.Roles)
	})

	s.Run("wrong key is rejected", func() {
		signed := s.signToken(s.operatorClaims(), "other-key")
		_, err := s.validator.ValidateToken(signed)
		s.Require().Error(err)
	})

	s.Run("expired token is rejected", func() {
		claims := s.operatorClaims()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		signed := s.signToken(claims, testSigningKey)

		_, err := s.validator.ValidateToken(signed)
		s.Require().Error(err)
	})

	s.Run("garbage is rejected", func() {
		_, err := s.validator.ValidateToken("not-a-token")
		s.Require().Error(err)
	})
}

func (s *AuthSuite) TestRequireAuth() {
	var seen identity.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCaller(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(s.validator, zap.NewNop())(next)

	s.Run("missing header is unauthorized", func() {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("invalid token is unauthorized", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("valid token passes with caller in context", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+s.signToken(s.operatorClaims(), testSigningKey))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		s.Equal(http.StatusOK, rr.Code)
		s.Equal("operator", seen.DisplayName)
		s.Equal([]string{"sysadmin"}, seen.Roles)
	})

	s.Run("missing display name falls back to subject", func() {
		claims := s.operatorClaims()
		claims.DisplayName = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+s.signToken(claims, testSigningKey))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		s.Equal(http.StatusOK, rr.Code)
		s.Equal("user-1", seen.DisplayName)
	})
}

func (s *AuthSuite) TestRequireRole() {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole("sysadmin")(next)

	s.Run("caller with the role passes", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithCaller(req.Context(), identity.Identity{DisplayName: "op", Roles: []string{"sysadmin"}}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("caller without the role is forbidden", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithCaller(req.Context(), identity.Identity{DisplayName: "viewer", Roles: []string{"public"}}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		s.Equal(http.StatusForbidden, rr.Code)
	})

	s.Run("unauthenticated context is forbidden", func() {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		s.Equal(http.StatusForbidden, rr.Code)
	})
}
