package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHasAnyRole(t *testing.T) {
	tests := []struct {
		have []string
		want []string
		ok   bool
	}{
		{[]string{RoleReceptionist}, []string{RoleReceptionist, RolePractitioner}, true},
		{[]string{RoleBilling}, []string{RoleReceptionist}, false},
		{[]string{RoleAdmin}, []string{RoleBilling}, true},
		{nil, []string{RoleReceptionist}, false},
		{[]string{RolePractitioner}, nil, false},
	}

	for _, tt := range tests {
		if got := HasAnyRole(tt.have, tt.want...); got != tt.ok {
			t.Errorf("HasAnyRole(%v, %v) = %v, want %v", tt.have, tt.want, got, tt.ok)
		}
	}
}

func TestRequireRole_Allowed(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserRolesKey, []string{RoleReceptionist}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireRole(RoleReceptionist, RolePractitioner)(okHandler)
	if err := h(c); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserRolesKey, []string{RoleBilling}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireRole(RoleReceptionist, RolePractitioner)(okHandler)
	expectStatus(t, h(c), http.StatusForbidden)
}

func TestRequireRole_NoRoles(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	expectStatus(t, RequireRole(RoleBilling)(okHandler)(c), http.StatusForbidden)
}

func TestRequireRole_AdminBypass(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "root", []string{RoleAdmin}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequireRole(RolePractitioner)(okHandler)(c); err != nil {
		t.Error("admin should bypass role checks")
	}
}

func TestUserIDFromContext(t *testing.T) {
	ctx := WithUser(context.Background(), "user-123", nil)
	if uid := UserIDFromContext(ctx); uid != "user-123" {
		t.Errorf("expected user-123, got %s", uid)
	}
	if empty := UserIDFromContext(context.Background()); empty != "" {
		t.Errorf("expected empty string, got %s", empty)
	}
}
