package digest

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrNoRecipients = errors.New("digest needs at least one recipient")
	ErrEmptySubject = errors.New("digest subject cannot be empty")
)

// Trigger values record why a digest was sent.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Record is the log entry written after a dashboard digest has been handed to the email provider.
type Record struct {
	ID         string
	Subject    string
	Recipients []string
	Total      int
	MessageID  string // provider's message ID
	Trigger    string // scheduled, manual
	SentAt     time.Time
}

// Validate checks if the Record has valid data.
// PRE: Record struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Record) Validate() error {
	if len(r.Recipients) == 0 {
		return ErrNoRecipients
	}
	if r.Subject == "" {
		return ErrEmptySubject
	}
	return nil
}
