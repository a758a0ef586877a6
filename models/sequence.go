package models

import (
	"time"

	"gorm.io/gorm"
)

// Step types across the supported channels
const (
	StepTypeAutoEmail      = "auto_email"
	StepTypeManualEmail    = "manual_email"
	StepTypePhoneCall      = "phone_call"
	StepTypeLIConnect      = "li_connect"
	StepTypeLIMessage      = "li_message"
	StepTypeLIViewProfile  = "li_view_profile"
	StepTypeLIInteractPost = "li_interact_post"
	StepTypeCustomTask     = "custom_task"
)

// Compose modes for email steps
const (
	ComposeModeManual = "manual"
	ComposeModeAI     = "ai"
)

// AI lifecycle states for email steps
const (
	AIStatusDraft     = "draft"
	AIStatusGenerated = "generated"
	AIStatusSaved     = "saved"
)

// MaxDelayMinutes caps a step delay at one week
const MaxDelayMinutes = 10080

// Sequence represents a multi-channel outreach sequence
type Sequence struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Status      string `gorm:"default:'draft'" json:"status"` // draft, active, paused

	// Statistics (denormalized for performance)
	RecordCount int `gorm:"default:0" json:"record_count"`
	ActiveCount int `gorm:"default:0" json:"active_count"`

	// Relations
	Steps       []SequenceStep      `gorm:"foreignKey:SequenceID" json:"steps,omitempty"`
	Memberships []ContactMembership `gorm:"foreignKey:SequenceID" json:"memberships,omitempty"`
}

// SequenceStep represents one touchpoint in a sequence. Position is
// authoritative: values are exactly 0..N-1 matching array order, and any
// mutation that changes order must renumber every step in one transaction.
type SequenceStep struct {
	gorm.Model
	SequenceID uint `gorm:"not null;index" json:"sequence_id"`

	Type    string `gorm:"not null" json:"type"`
	Channel string `gorm:"not null" json:"channel"` // email, phone, linkedin, task

	DelayMinutes int  `gorm:"not null" json:"delay_minutes"` // relative to previous step, [0, 10080]
	Position     int  `gorm:"not null" json:"position"`
	Paused       bool `gorm:"default:false" json:"paused"`
	Collapsed    bool `gorm:"default:false" json:"collapsed"`

	// Channel-specific payload stored as JSON
	Data StepData `json:"data" gorm:"type:jsonb;serializer:json"`
}

// StepData contains channel-specific step fields
type StepData struct {
	// Email step fields
	Subject     string     `json:"subject,omitempty"`
	Body        string     `json:"body,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
	Mode        string     `json:"mode,omitempty"` // manual, ai
	AIPrompt    string     `json:"ai_prompt,omitempty"`
	AITemplate  string     `json:"ai_template,omitempty"`
	CTAEnabled  bool       `json:"cta_enabled,omitempty"`
	AIStatus    string     `json:"ai_status,omitempty"` // draft, generated, saved
	AIOutput    *AIOutput  `json:"ai_output,omitempty"`
	SavedAt     *time.Time `json:"saved_at,omitempty"`

	// Call / LinkedIn / task fields
	Priority            string `json:"priority,omitempty"`
	Note                string `json:"note,omitempty"`
	SkipAfterDueEnabled bool   `json:"skip_after_due_enabled,omitempty"`
	SkipAfterDays       int    `json:"skip_after_days,omitempty"`
}

// AIOutput is the transient result of a generation. It is copied into the
// step's persisted subject/body only by an explicit save.
type AIOutput struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// IsEmailType reports whether a step type is one of the email channels
func IsEmailType(stepType string) bool {
	return stepType == StepTypeAutoEmail || stepType == StepTypeManualEmail
}

// ChannelForType maps a step type to its channel
func ChannelForType(stepType string) string {
	switch stepType {
	case StepTypeAutoEmail, StepTypeManualEmail:
		return "email"
	case StepTypePhoneCall:
		return "phone"
	case StepTypeLIConnect, StepTypeLIMessage, StepTypeLIViewProfile, StepTypeLIInteractPost:
		return "linkedin"
	default:
		return "task"
	}
}

// ValidStepType reports whether the given type is part of the enum
func ValidStepType(stepType string) bool {
	switch stepType {
	case StepTypeAutoEmail, StepTypeManualEmail, StepTypePhoneCall,
		StepTypeLIConnect, StepTypeLIMessage, StepTypeLIViewProfile,
		StepTypeLIInteractPost, StepTypeCustomTask:
		return true
	}
	return false
}

// ClampDelay bounds a delay to [0, MaxDelayMinutes]
func ClampDelay(minutes int) int {
	if minutes < 0 {
		return 0
	}
	if minutes > MaxDelayMinutes {
		return MaxDelayMinutes
	}
	return minutes
}
