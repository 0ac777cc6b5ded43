package member

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Business rule constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusArchived = "archived"

	RoleMember    = "member"
	RoleVolunteer = "volunteer"
	RoleBoard     = "board"
)

// Domain errors
var (
	ErrEmptyName       = errors.New("member name cannot be empty")
	ErrNameTooLong     = errors.New("member name cannot exceed 100 characters")
	ErrInvalidEmail    = errors.New("member email must be valid")
	ErrInvalidRole     = errors.New("role must be 'member', 'volunteer', or 'board'")
	ErrInvalidStatus   = errors.New("status must be 'active', 'inactive', or 'archived'")
	ErrAlreadyArchived = errors.New("member is already archived")
	ErrNotArchived     = errors.New("member is not archived")
)

// Member is a registered person of the society. Active members are counted
// as the "users" category on the dashboard.
type Member struct {
	ID       string
	Name     string
	Email    string
	Role     string
	Status   string
	JoinedAt time.Time
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Email must contain '@', Name must not be empty
func (m *Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if len(m.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !strings.Contains(m.Email, "@") {
		return ErrInvalidEmail
	}
	if m.Role != RoleMember && m.Role != RoleVolunteer && m.Role != RoleBoard {
		return ErrInvalidRole
	}
	if m.Status != StatusActive && m.Status != StatusInactive && m.Status != StatusArchived {
		return ErrInvalidStatus
	}
	return nil
}

// IsActive returns true if the member is currently active.
// INVARIANT: Status field is not mutated
func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}

// Archive sets the member status to archived.
// PRE: Member is not already archived
// POST: Status is set to archived
func (m *Member) Archive() error {
	if m.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	m.Status = StatusArchived
	return nil
}

// Restore sets the member status back to active.
// PRE: Member is currently archived
// POST: Status is set to active
func (m *Member) Restore() error {
	if m.Status != StatusArchived {
		return ErrNotArchived
	}
	m.Status = StatusActive
	return nil
}
