package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func claimsEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tenant", TenantID(r.Context()))
		w.Header().Set("X-User", UserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())
	valid, _ := manager.GenerateAccessToken("worker-001", "tenant-1", []string{RoleWorker})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	handler := Middleware(manager)(claimsEcho())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/weather", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if got := rec.Header().Get("X-Tenant"); got != "tenant-1" {
					t.Errorf("tenant = %q, want tenant-1", got)
				}
				if got := rec.Header().Get("X-User"); got != "worker-001" {
					t.Errorf("user = %q, want worker-001", got)
				}
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		claims     *Claims
		wantStatus int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"worker", &Claims{UserID: "w", TenantID: "t", Roles: []string{RoleWorker}}, http.StatusForbidden},
		{"manager", &Claims{UserID: "m", TenantID: "t", Roles: []string{RoleManager}}, http.StatusOK},
	}

	handler := RequireRole(RoleManager, RoleAdmin)(claimsEcho())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/properties/p1/geocode", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
