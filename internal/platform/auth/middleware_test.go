package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)
	expectStatus(t, h(c), http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)
			expectStatus(t, h(c), http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Roles: []string{RoleReceptionist},
	}
	tokenStr := createTestToken(t, claims, testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var handlerCalled bool
	handler := func(c echo.Context) error {
		handlerCalled = true
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "user-123" {
			t.Errorf("expected user_id=user-123, got %s", uid)
		}
		roles := RolesFromContext(ctx)
		if len(roles) != 1 || roles[0] != RoleReceptionist {
			t.Errorf("expected roles=[receptionist], got %v", roles)
		}
		return c.String(http.StatusOK, "ok")
	}

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(handler)(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Error("handler was not called")
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	tokenStr := createTestToken(t, claims, testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)
	expectStatus(t, h(c), http.StatusUnauthorized)
}

func TestJWTMiddleware_NoExpiry(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"}}
	tokenStr := createTestToken(t, claims, testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)
	expectStatus(t, h(c), http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenStr := createTestToken(t, claims, []byte("some-other-key-entirely-different"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)
	expectStatus(t, h(c), http.StatusUnauthorized)
}

func TestJWTMiddleware_IssuerMismatch(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "clinic"}
	tokenStr, err := IssueToken(JWTConfig{SigningKey: testSigningKey, Issuer: "someone-else"}, "u", nil, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	expectStatus(t, JWTMiddleware(cfg)(okHandler)(c), http.StatusUnauthorized)
}

func TestJWTMiddleware_SkipperBypasses(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/services", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/public/services")

	h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Skipper: AuthSkipper})(okHandler)
	if err := h(c); err != nil {
		t.Fatalf("expected public path to skip auth, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestIssueToken_RoundTrip(t *testing.T) {
	cfg := JWTConfig{SigningKey: testSigningKey, Issuer: "clinic", Audience: "clinic-api"}
	tokenStr, err := IssueToken(cfg, "front-desk-1", []string{RoleReceptionist, RoleBilling}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		roles := RolesFromContext(c.Request().Context())
		if len(roles) != 2 || roles[1] != RoleBilling {
			t.Errorf("expected roles=[receptionist billing], got %v", roles)
		}
		return c.NoContent(http.StatusNoContent)
	}
	if err := JWTMiddleware(cfg)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIssueToken_RequiresKey(t *testing.T) {
	if _, err := IssueToken(JWTConfig{}, "u", nil, time.Hour); err == nil {
		t.Error("expected error without signing key")
	}
}

func TestDevAuthMiddleware_NoToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "dev-user" {
			t.Errorf("expected user_id=dev-user, got %s", uid)
		}
		roles := RolesFromContext(ctx)
		if len(roles) != 1 || roles[0] != RoleAdmin {
			t.Errorf("expected roles=[admin], got %v", roles)
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := DevAuthMiddleware(nil)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDevAuthMiddleware_VerifiesProvidedToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := DevAuthMiddleware(testSigningKey)(okHandler)
	expectStatus(t, h(c), http.StatusUnauthorized)
}
