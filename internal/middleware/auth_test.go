package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/pkg/jwt"
)

func TestAuthMiddlewareAllowsValidAccessToken(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute, time.Hour)
	token, err := jwtSvc.GenerateAccessToken(uuid.New(), "customer", true)
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute, time.Hour)

	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareBlocksDeactivatedAccount(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute, time.Hour)
	token, err := jwtSvc.GenerateAccessToken(uuid.New(), "customer", false)
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireAdminRejectsCustomer(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute, time.Hour)
	token, err := jwtSvc.GenerateAccessToken(uuid.New(), "customer", true)
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	handler := Auth(jwtSvc)(RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
