package auth

import (
	"errors"
	"testing"
	"time"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:       "test-secret-key-at-least-32-bytes!!",
		Issuer:       "rightfit",
		Audience:     "rightfit-api",
		AccessExpiry: 15 * time.Minute,
	}
}

func TestClaims_Role(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{"no roles", nil, ""},
		{"empty roles", []string{}, ""},
		{"single role", []string{RoleWorker}, RoleWorker},
		{"multiple roles", []string{RoleManager, RoleWorker}, RoleManager},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Claims{Roles: tt.roles}
			if got := c.Role(); got != tt.want {
				t.Errorf("Role() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClaims_HasRole(t *testing.T) {
	claims := &Claims{Roles: []string{RoleWorker, RoleManager}}

	tests := []struct {
		name string
		role string
		want bool
	}{
		{"has worker", RoleWorker, true},
		{"has manager", RoleManager, true},
		{"no admin", RoleAdmin, false},
		{"no empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := claims.HasRole(tt.role); got != tt.want {
				t.Errorf("HasRole(%s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestClaims_CanActFor(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		worker string
		want   bool
	}{
		{"self", Claims{UserID: "worker-001", Roles: []string{RoleWorker}}, "worker-001", true},
		{"other worker", Claims{UserID: "worker-001", Roles: []string{RoleWorker}}, "worker-002", false},
		{"manager", Claims{UserID: "mgr-1", Roles: []string{RoleManager}}, "worker-002", true},
		{"admin", Claims{UserID: "adm-1", Roles: []string{RoleAdmin}}, "worker-002", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.CanActFor(tt.worker); got != tt.want {
				t.Errorf("CanActFor(%s) = %v, want %v", tt.worker, got, tt.want)
			}
		})
	}
}

func TestDefaultJWTConfig(t *testing.T) {
	config := DefaultJWTConfig()

	if config.AccessExpiry != 15*time.Minute {
		t.Errorf("AccessExpiry = %v, want 15 minutes", config.AccessExpiry)
	}
}

func TestJWTManager_GenerateAndValidateAccessToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	token, err := manager.GenerateAccessToken("worker-001", "tenant-1", []string{RoleWorker})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != "worker-001" {
		t.Errorf("UserID = %s, want worker-001", claims.UserID)
	}
	if claims.TenantID != "tenant-1" {
		t.Errorf("TenantID = %s, want tenant-1", claims.TenantID)
	}
	if !claims.HasRole(RoleWorker) {
		t.Error("should have role 'worker'")
	}
}

func TestJWTManager_ValidateToken_Invalid(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"invalid format", "not-a-jwt"},
		{"tampered token", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0NTY3ODkwIiwibmFtZSI6IkpvaG4gRG9lIiwiaWF0IjoxNTE2MjM5MDIyfQ.invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateToken(tt.token); err == nil {
				t.Error("ValidateToken should fail for invalid token")
			}
		})
	}
}

func TestJWTManager_ValidateToken_WrongSecret(t *testing.T) {
	config2 := testJWTConfig()
	config2.Secret = "secret-key-2-at-least-32-bytes!!!"

	token, _ := NewJWTManager(testJWTConfig()).GenerateAccessToken("worker-001", "tenant-1", nil)

	if _, err := NewJWTManager(config2).ValidateToken(token); err == nil {
		t.Error("ValidateToken should fail with wrong secret")
	}
}

func TestJWTManager_ValidateToken_WrongAudience(t *testing.T) {
	other := testJWTConfig()
	other.Audience = "billing-api"

	token, _ := NewJWTManager(other).GenerateAccessToken("worker-001", "tenant-1", nil)

	if _, err := NewJWTManager(testJWTConfig()).ValidateToken(token); err == nil {
		t.Error("ValidateToken should fail for another audience")
	}
}

func TestJWTManager_ValidateToken_NoTenant(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())
	token, _ := manager.GenerateAccessToken("worker-001", "", nil)

	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrNoTenant) {
		t.Errorf("expected ErrNoTenant, got %v", err)
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	config := testJWTConfig()
	config.AccessExpiry = -1 * time.Hour
	manager := NewJWTManager(config)

	token, err := manager.GenerateAccessToken("worker-001", "tenant-1", nil)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	_, err = manager.ValidateToken(token)
	if err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}
