package domain

import "time"

// PersonKind identifies which person collection a record belongs to.
type PersonKind string

const (
	KindRequester   PersonKind = "requester"
	KindCoordinator PersonKind = "coordinator"
	KindManager     PersonKind = "manager"
)

// Numeric role codes carried in tokens and accepted as the explicit role
// query parameter. Managers and coordinators see the full filtered set;
// requesters are restricted to their own tickets.
const (
	RoleManager     = 0
	RoleRequester   = 1
	RoleCoordinator = 2
)

// DefaultRole returns the role code for a person kind.
func (k PersonKind) DefaultRole() int {
	switch k {
	case KindManager:
		return RoleManager
	case KindCoordinator:
		return RoleCoordinator
	default:
		return RoleRequester
	}
}

// Valid reports whether the kind is one of the known collections.
func (k PersonKind) Valid() bool {
	switch k {
	case KindRequester, KindCoordinator, KindManager:
		return true
	}
	return false
}

// Person is a registered requester, coordinator or manager.
type Person struct {
	ID         int64
	PersonID   string
	Kind       PersonKind
	Name       string
	JiraUserID string
	Email      string
	Region     string
	Role       int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
