package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sync/internal/domain"
	apperrors "github.com/spec-kit/ticket-sync/pkg/util"
)

func TestRegisterRequiresAllFields(t *testing.T) {
	t.Parallel()

	svc := NewPersonService(&fakePersonRepo{}, nil, zap.NewNop())
	_, err := svc.Register(context.Background(), PersonRegisterInput{Name: "Arjun"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("error = %v, want DomainError", err)
	}
	details := domainErr.Details
	if details == nil {
		t.Fatal("no details attached to validation error")
	}
	for _, field := range []string{"jiraUserId", "email", "region"} {
		if _, present := details[field]; !present {
			t.Errorf("missing field %q not reported", field)
		}
	}
	if _, present := details["name"]; present {
		t.Error("provided field name reported as missing")
	}
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	t.Parallel()

	svc := NewPersonService(&fakePersonRepo{}, nil, zap.NewNop())
	_, err := svc.Register(context.Background(), PersonRegisterInput{
		Name:       "Arjun",
		JiraUserID: "arjun-1",
		Email:      "arjun at example",
		Region:     "South",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRegisterDefaultsRoleByKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     domain.PersonKind
		wantRole int
	}{
		{name: "unspecified kind is requester", kind: "", wantRole: domain.RoleRequester},
		{name: "requester", kind: domain.KindRequester, wantRole: domain.RoleRequester},
		{name: "coordinator", kind: domain.KindCoordinator, wantRole: domain.RoleCoordinator},
		{name: "manager", kind: domain.KindManager, wantRole: domain.RoleManager},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewPersonService(&fakePersonRepo{}, nil, zap.NewNop())
			person, err := svc.Register(context.Background(), PersonRegisterInput{
				Kind:       tt.kind,
				Name:       "Arjun",
				JiraUserID: "arjun-1",
				Email:      "arjun@example.com",
				Region:     "South",
			})
			if err != nil {
				t.Fatalf("Register: %v", err)
			}
			if person.Role != tt.wantRole {
				t.Errorf("Role = %d, want %d", person.Role, tt.wantRole)
			}
			if person.PersonID == "" {
				t.Error("no identifier allocated")
			}
		})
	}
}

func TestRegisterRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	svc := NewPersonService(&fakePersonRepo{}, nil, zap.NewNop())
	_, err := svc.Register(context.Background(), PersonRegisterInput{
		Kind:       "wizard",
		Name:       "Arjun",
		JiraUserID: "arjun-1",
		Email:      "arjun@example.com",
		Region:     "South",
	})
	if err == nil {
		t.Fatal("expected validation error for unknown kind")
	}
}

func TestRegisterHonorsExplicitRole(t *testing.T) {
	t.Parallel()

	svc := NewPersonService(&fakePersonRepo{}, nil, zap.NewNop())
	person, err := svc.Register(context.Background(), PersonRegisterInput{
		Kind:       domain.KindRequester,
		Name:       "Arjun",
		JiraUserID: "arjun-1",
		Email:      "arjun@example.com",
		Region:     "South",
		Role:       intPtr(domain.RoleCoordinator),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if person.Role != domain.RoleCoordinator {
		t.Errorf("Role = %d, want %d", person.Role, domain.RoleCoordinator)
	}
}

func TestResolveRoleFromStore(t *testing.T) {
	t.Parallel()

	svc := NewPersonService(&fakePersonRepo{}, nil, zap.NewNop())
	if _, err := svc.Register(context.Background(), PersonRegisterInput{
		Kind:       domain.KindManager,
		Name:       "Priya",
		JiraUserID: "priya-1",
		Email:      "priya@example.com",
		Region:     "South",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	role, err := svc.ResolveRole(context.Background(), "priya@example.com")
	if err != nil {
		t.Fatalf("ResolveRole: %v", err)
	}
	if role != domain.RoleManager {
		t.Errorf("role = %d, want %d", role, domain.RoleManager)
	}

	if _, err := svc.ResolveRole(context.Background(), "nobody@example.com"); err == nil {
		t.Error("expected error for unknown email")
	}
}
