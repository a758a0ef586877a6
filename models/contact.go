package models

import (
	"time"

	"gorm.io/gorm"
)

// Contact represents a single person targeted by sequences
type Contact struct {
	gorm.Model
	Email     string `gorm:"index" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Company fields are deliberately redundant: imports fill whichever
	// they have, and token resolution walks them in a fixed order.
	Company     string `json:"company"`
	CompanyName string `json:"company_name"`
	AccountName string `json:"account_name"`
	AccountID   *uint  `gorm:"index" json:"account_id"`

	Position string `json:"position"` // job title
	Phone    string `json:"phone"`
	Website  string `json:"website"`

	IsBounced      bool `gorm:"default:false" json:"is_bounced"`
	IsUnsubscribed bool `gorm:"default:false" json:"is_unsubscribed"`
	IsDoNotContact bool `gorm:"default:false" json:"is_do_not_contact"`

	LastContact *time.Time `json:"last_contact"`

	// Relations
	Account *Account `json:"account,omitempty"`
}

// Account represents a company a contact belongs to
type Account struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	Domain   string `json:"domain"`
	Industry string `json:"industry"`
}

// ContactMembership enrolls a contact into a sequence
type ContactMembership struct {
	gorm.Model
	SequenceID uint `gorm:"not null;index" json:"sequence_id"`
	ContactID  uint `gorm:"not null;index" json:"contact_id"`

	HasEmail       bool `gorm:"default:false" json:"has_email"`
	SkipEmailSteps bool `gorm:"default:false" json:"skip_email_steps"`

	// Relations
	Contact Contact `json:"-"`
}
