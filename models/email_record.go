package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Email record statuses
const (
	EmailStatusNotGenerated    = "not_generated"
	EmailStatusGenerating      = "generating"
	EmailStatusPendingApproval = "pending_approval"
	EmailStatusApproved        = "approved"
	EmailStatusRejected        = "rejected"
	EmailStatusSent            = "sent"
	EmailStatusError           = "error"
)

// ErrInvalidTransition is returned when an email record transition is not
// one of the allowed lifecycle edges.
var ErrInvalidTransition = fmt.Errorf("invalid email record transition")

// allowedTransitions holds the only legal lifecycle edges for an email record
var allowedTransitions = map[string][]string{
	EmailStatusNotGenerated:    {EmailStatusGenerating},
	EmailStatusGenerating:      {EmailStatusPendingApproval, EmailStatusError},
	EmailStatusPendingApproval: {EmailStatusApproved, EmailStatusRejected},
	EmailStatusApproved:        {EmailStatusSent, EmailStatusError},
}

// EmailRecord is an independently scheduled email for one contact in one
// sequence. Records are created by enrollment fan-out and progressed only
// through the allowed transitions.
type EmailRecord struct {
	ID        string `gorm:"primaryKey" json:"id"` // uuid
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SequenceID uint `gorm:"not null;index" json:"sequence_id"`
	StepID     uint `gorm:"not null;index" json:"step_id"`
	ContactID  uint `gorm:"not null;index" json:"contact_id"`

	Status            string    `gorm:"default:'not_generated';index" json:"status"`
	ScheduledSendTime time.Time `gorm:"not null;index" json:"scheduled_send_time"`

	Subject string `json:"subject"`
	HTML    string `gorm:"type:text" json:"html"`
	Text    string `gorm:"type:text" json:"text"`

	GeneratedAt *time.Time `json:"generated_at"`
	ApprovedAt  *time.Time `json:"approved_at"`
	SentAt      *time.Time `json:"sent_at"`
	RejectedAt  *time.Time `json:"rejected_at"`

	ErrorMessage string `json:"error_message"`
	TrackingID   string `json:"tracking_id"`
	MessageID    string `json:"message_id"`
}

// CanTransition reports whether moving from one status to another is one of
// the allowed edges.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the record to the given status, stamping the matching
// timestamp. Any edge outside the allowed set is rejected without mutating
// the record.
func (e *EmailRecord) Transition(to string, now time.Time) error {
	if !CanTransition(e.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, to)
	}
	e.Status = to
	switch to {
	case EmailStatusPendingApproval:
		e.GeneratedAt = &now
	case EmailStatusApproved:
		e.ApprovedAt = &now
	case EmailStatusRejected:
		e.RejectedAt = &now
	case EmailStatusSent:
		e.SentAt = &now
	}
	return nil
}

// Due reports whether the record's scheduled send time has passed
func (e *EmailRecord) Due(now time.Time) bool {
	return !e.ScheduledSendTime.After(now)
}
