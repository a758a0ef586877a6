package utils

import (
	"fmt"

	"gorm.io/gorm"

	"outreachflow/models"
)

// SettingsStore exposes synchronous getters for the sender identity and
// signature collaborator. A single settings row is expected; a missing row
// yields zero-value settings rather than an error.
type SettingsStore struct {
	DB *gorm.DB
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{DB: db}
}

// Get returns the current settings with the AI key decrypted
func (s *SettingsStore) Get() models.Settings {
	var settings models.Settings
	if err := s.DB.First(&settings).Error; err != nil {
		return models.Settings{IncludeSignature: true}
	}
	if key, err := Decrypt(settings.AIAPIKey); err == nil {
		settings.AIAPIKey = key
	}
	return settings
}

// SenderIdentity returns the configured from-name and from-address
func (s *SettingsStore) SenderIdentity() (name, email string) {
	settings := s.Get()
	return settings.SenderName, settings.SenderEmail
}

// Signature returns the signature block and whether previews include it
func (s *SettingsStore) Signature() (html string, include bool) {
	settings := s.Get()
	return settings.SignatureHTML, settings.IncludeSignature
}

// Save persists settings, encrypting the AI key at rest
func (s *SettingsStore) Save(settings *models.Settings) error {
	encrypted, err := Encrypt(settings.AIAPIKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt AI key: %w", err)
	}
	settings.AIAPIKey = encrypted
	return s.DB.Save(settings).Error
}
