package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"outreachflow/utils"
)

type SettingsController struct {
	Logger   *log.Logger
	Settings *utils.SettingsStore
}

func NewSettingsController(logger *log.Logger, settings *utils.SettingsStore) *SettingsController {
	return &SettingsController{
		Logger:   logger,
		Settings: settings,
	}
}

// GetSettings returns the current settings with the AI key masked
func (sc *SettingsController) GetSettings(c *fiber.Ctx) error {
	settings := sc.Settings.Get()
	if settings.AIAPIKey != "" {
		settings.AIAPIKey = "********"
	}
	return c.JSON(settings)
}

// UpdateSettings persists sender identity, signature and AI configuration
func (sc *SettingsController) UpdateSettings(c *fiber.Ctx) error {
	var input struct {
		SenderName         string `json:"sender_name"`
		SenderEmail        string `json:"sender_email" validate:"omitempty,email"`
		IncludeSignature   *bool  `json:"include_signature"`
		SignatureHTML      string `json:"signature_html"`
		AIAPIKey           string `json:"ai_api_key"`
		MarketContext      string `json:"market_context"`
		MeetingPreferences string `json:"meeting_preferences"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	settings := sc.Settings.Get()
	if input.SenderName != "" {
		settings.SenderName = input.SenderName
	}
	if input.SenderEmail != "" {
		settings.SenderEmail = input.SenderEmail
	}
	if input.IncludeSignature != nil {
		settings.IncludeSignature = *input.IncludeSignature
	}
	if input.SignatureHTML != "" {
		settings.SignatureHTML = input.SignatureHTML
	}
	if input.AIAPIKey != "" {
		settings.AIAPIKey = input.AIAPIKey
	}
	if input.MarketContext != "" {
		settings.MarketContext = input.MarketContext
	}
	if input.MeetingPreferences != "" {
		settings.MeetingPreferences = input.MeetingPreferences
	}

	if err := sc.Settings.Save(&settings); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save settings",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Settings updated successfully",
	})
}
