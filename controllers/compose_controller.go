package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"outreachflow/models"
	"outreachflow/utils"
)

type ComposeController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Compose  *utils.ComposeEngine
	Settings *utils.SettingsStore
	Accounts *utils.AccountCache
}

func NewComposeController(db *gorm.DB, logger *log.Logger, compose *utils.ComposeEngine, settings *utils.SettingsStore, accounts *utils.AccountCache) *ComposeController {
	return &ComposeController{
		DB:       db,
		Logger:   logger,
		Compose:  compose,
		Settings: settings,
		Accounts: accounts,
	}
}

// snapshot loads the contact a render or generation resolves against
func (cc *ComposeController) snapshot(contactID uint) (utils.Snapshot, error) {
	var contact models.Contact
	if err := cc.DB.Preload("Account").First(&contact, contactID).Error; err != nil {
		return utils.Snapshot{}, err
	}
	senderName, _ := cc.Settings.SenderIdentity()
	return utils.Snapshot{
		Contact:    contact,
		Account:    contact.Account,
		SenderName: senderName,
		Accounts:   cc.Accounts,
	}, nil
}

func (cc *ComposeController) loadStep(c *fiber.Ctx) (*models.SequenceStep, error) {
	var step models.SequenceStep
	err := cc.DB.Where("id = ? AND sequence_id = ?", c.Params("stepId"), c.Params("id")).
		First(&step).Error
	return &step, err
}

// GenerateEmail runs AI generation for a step against a preview contact.
// Success only fills the transient output; the saved subject and body are
// untouched until an explicit save.
func (cc *ComposeController) GenerateEmail(c *fiber.Ctx) error {
	var input struct {
		ContactID uint `json:"contact_id" validate:"required"`
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

	step, err := cc.loadStep(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Step not found",
		})
	}

	snap, err := cc.snapshot(input.ContactID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Contact not found",
		})
	}

	if err := cc.Compose.Generate(c.Context(), step, snap, cc.Settings.Get()); err != nil {
		switch err {
		case utils.ErrNotEmailStep, utils.ErrNotAIMode:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	if err := cc.DB.Save(step).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to persist generated output",
		})
	}

	return c.JSON(fiber.Map{
		"message":   "Email generated successfully",
		"ai_status": step.Data.AIStatus,
		"output":    step.Data.AIOutput,
	})
}

// SaveGenerated copies the generated output into the step's subject and body
func (cc *ComposeController) SaveGenerated(c *fiber.Ctx) error {
	step, err := cc.loadStep(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Step not found",
		})
	}

	if err := cc.Compose.SaveToStep(step); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := cc.DB.Save(step).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save step",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Generated email saved to step",
		"step":    step,
	})
}

// SetComposeMode flips a step between manual and ai composition
func (cc *ComposeController) SetComposeMode(c *fiber.Ctx) error {
	var input struct {
		Mode string `json:"mode" validate:"required,oneof=manual ai"`
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

	step, err := cc.loadStep(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Step not found",
		})
	}

	if err := cc.Compose.SetMode(step, input.Mode); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := cc.DB.Save(step).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update compose mode",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Compose mode updated",
		"step":    step,
	})
}

// PreviewStep renders the step's subject and body against a contact
func (cc *ComposeController) PreviewStep(c *fiber.Ctx) error {
	contactID := utils.ParseUint(c.Query("contact_id"))
	if contactID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "contact_id query parameter is required",
		})
	}

	step, err := cc.loadStep(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Step not found",
		})
	}

	snap, err := cc.snapshot(contactID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Contact not found",
		})
	}

	return c.JSON(fiber.Map{
		"subject": utils.RenderSubject(step.Data.Subject, snap),
		"html":    utils.PreviewHTML(step, snap, cc.Settings.Get()),
	})
}

// ListTemplates returns the prompt template catalogue
func (cc *ComposeController) ListTemplates(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"templates": utils.TemplateNames(),
	})
}
