package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"outreachflow/models"
	"outreachflow/utils"
	"outreachflow/worker"
)

type SequenceController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Enroller *worker.Enroller
	Events   *EventHub
}

func NewSequenceController(db *gorm.DB, logger *log.Logger, enroller *worker.Enroller, events *EventHub) *SequenceController {
	return &SequenceController{
		DB:       db,
		Logger:   logger,
		Enroller: enroller,
		Events:   events,
	}
}

// CreateSequence creates an empty sequence
func (sc *SequenceController) CreateSequence(c *fiber.Ctx) error {
	var input struct {
		Name        string `json:"name" validate:"required,min=1,max=200"`
		Description string `json:"description"`
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

	sequence := models.Sequence{
		Name:        input.Name,
		Description: input.Description,
		Status:      "draft",
	}
	if err := sc.DB.Create(&sequence).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create sequence",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Sequence created successfully",
		"sequence": sequence,
	})
}

// GetSequences returns all sequences
func (sc *SequenceController) GetSequences(c *fiber.Ctx) error {
	var sequences []models.Sequence
	if err := sc.DB.Find(&sequences).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch sequences",
		})
	}
	return c.JSON(sequences)
}

// ShowSequence loads a sequence with its ordered steps, memberships and
// stats, the payload behind the first render.
func (sc *SequenceController) ShowSequence(c *fiber.Ctx) error {
	sequenceID := c.Params("id")

	var sequence models.Sequence
	if err := sc.DB.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Memberships").First(&sequence, sequenceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sequence not found",
		})
	}

	var pendingApproval int64
	sc.DB.Model(&models.EmailRecord{}).
		Where("sequence_id = ? AND status = ?", sequence.ID, models.EmailStatusPendingApproval).
		Count(&pendingApproval)

	return c.JSON(fiber.Map{
		"sequence": sequence,
		"stats": fiber.Map{
			"record_count":     sequence.RecordCount,
			"active_count":     sequence.ActiveCount,
			"pending_approval": pendingApproval,
		},
	})
}

// UpdateSequence updates name/description/status
func (sc *SequenceController) UpdateSequence(c *fiber.Ctx) error {
	sequenceID := c.Params("id")

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status" validate:"omitempty,oneof=draft active paused"`
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

	var sequence models.Sequence
	if err := sc.DB.First(&sequence, sequenceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sequence not found",
		})
	}

	if input.Name != "" {
		sequence.Name = input.Name
	}
	sequence.Description = input.Description
	if input.Status != "" {
		sequence.Status = input.Status
	}

	if err := sc.DB.Save(&sequence).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update sequence",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Sequence updated successfully",
		"sequence": sequence,
	})
}

// DeleteSequence removes a sequence with its steps, memberships and records
func (sc *SequenceController) DeleteSequence(c *fiber.Ctx) error {
	sequenceID := c.Params("id")

	var sequence models.Sequence
	if err := sc.DB.First(&sequence, sequenceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sequence not found",
		})
	}

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sequence_id = ?", sequence.ID).Delete(&models.SequenceStep{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sequence_id = ?", sequence.ID).Delete(&models.ContactMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sequence_id = ?", sequence.ID).Delete(&models.EmailRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sequence).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete sequence",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Sequence deleted successfully",
	})
}

// AddContact enrolls a contact into the sequence and fans out email records
func (sc *SequenceController) AddContact(c *fiber.Ctx) error {
	sequenceID := utils.ParseUint(c.Params("id"))

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

	membership, records, err := sc.Enroller.Enroll(sequenceID, input.ContactID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	sc.Events.Publish("contact_added", membership)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Contact enrolled successfully",
		"membership": membership,
		"emails":     records,
	})
}

// RemoveContact unenrolls a contact, dropping unsent records
func (sc *SequenceController) RemoveContact(c *fiber.Ctx) error {
	sequenceID := utils.ParseUint(c.Params("id"))
	contactID := utils.ParseUint(c.Params("contactId"))

	if err := sc.Enroller.Unenroll(sequenceID, contactID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	sc.Events.Publish("contact_removed", fiber.Map{
		"sequence_id": sequenceID,
		"contact_id":  contactID,
	})

	return c.JSON(fiber.Map{
		"message": "Contact removed successfully",
	})
}
