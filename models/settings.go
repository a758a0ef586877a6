package models

import "gorm.io/gorm"

// Settings holds the sender identity and signature used when previewing
// and handing emails off for sending. A single row is expected.
type Settings struct {
	gorm.Model
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`

	IncludeSignature bool   `gorm:"default:true" json:"include_signature"`
	SignatureHTML    string `gorm:"type:text" json:"signature_html"`

	// Encrypted at rest
	AIAPIKey string `json:"-"`

	MarketContext      string `gorm:"type:text" json:"market_context"`
	MeetingPreferences string `gorm:"type:text" json:"meeting_preferences"`
}
