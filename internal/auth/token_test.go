package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/ticket-sync/internal/domain"
)

func testPerson() *domain.Person {
	return &domain.Person{
		PersonID: "MGR-000001",
		Kind:     domain.KindManager,
		Name:     "Priya",
		Email:    "priya@example.com",
		Role:     domain.RoleManager,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	manager := NewTokenManager("test-secret", time.Hour)
	signed, err := manager.Issue(testPerson())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := manager.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email != "priya@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != domain.RoleManager {
		t.Errorf("Role = %d, want %d", claims.Role, domain.RoleManager)
	}
	if claims.PersonID != "MGR-000001" {
		t.Errorf("PersonID = %q", claims.PersonID)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	t.Parallel()

	signed, err := NewTokenManager("secret-a", time.Hour).Issue(testPerson())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewTokenManager("secret-b", time.Hour).Verify(signed); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestTokenExpiredRejected(t *testing.T) {
	t.Parallel()

	manager := NewTokenManager("test-secret", -time.Minute)
	signed, err := manager.Issue(testPerson())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := manager.Verify(signed); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestTokenTamperedRejected(t *testing.T) {
	t.Parallel()

	manager := NewTokenManager("test-secret", time.Hour)
	signed, err := manager.Issue(testPerson())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tampered := signed[:len(signed)-2] + "xx"
	if _, err := manager.Verify(tampered); err == nil {
		t.Fatal("tampered token accepted")
	}
}
