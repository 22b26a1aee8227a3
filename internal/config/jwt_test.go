package config

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("64f000000000000000000001", "Jane Customer", "jane@example.com", "customer")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "64f000000000000000000001" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.Role != "customer" {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.Email != "jane@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	token, err := GenerateToken("64f000000000000000000001", "Jane", "jane@example.com", "customer")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	t.Setenv("JWT_SECRET", "second-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Fatal("expected validation to fail for garbage input")
	}
}
