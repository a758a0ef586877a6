package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"outreachflow/models"
	"outreachflow/utils"
	"outreachflow/worker"
)

type EmailController struct {
	DB         *gorm.DB
	Logger     *log.Logger
	Automation *worker.AutomationWorker
}

func NewEmailController(db *gorm.DB, logger *log.Logger, automation *worker.AutomationWorker) *EmailController {
	return &EmailController{
		DB:         db,
		Logger:     logger,
		Automation: automation,
	}
}

// GetEmails lists email records, optionally filtered by sequence and status
func (ec *EmailController) GetEmails(c *fiber.Ctx) error {
	query := ec.DB.Model(&models.EmailRecord{}).Order("scheduled_send_time ASC")

	if sequenceID := utils.ParseUint(c.Query("sequence_id")); sequenceID != 0 {
		query = query.Where("sequence_id = ?", sequenceID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var records []models.EmailRecord
	if err := query.Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch emails",
		})
	}

	return c.JSON(records)
}

// ShowEmail returns a single email record
func (ec *EmailController) ShowEmail(c *fiber.Ctx) error {
	var record models.EmailRecord
	if err := ec.DB.First(&record, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Email not found",
		})
	}
	return c.JSON(record)
}

// ApproveEmail moves a pending email to approved and hands it back to the
// scheduler. The send itself always happens on the timer path.
func (ec *EmailController) ApproveEmail(c *fiber.Ctx) error {
	record, err := ec.Automation.ApproveEmail(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Email approved",
		"email":   record,
	})
}

// RejectEmail marks a pending email rejected
func (ec *EmailController) RejectEmail(c *fiber.Ctx) error {
	record, err := ec.Automation.RejectEmail(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Email rejected",
		"email":   record,
	})
}

// EditEmail updates the content of a pending email before approval
func (ec *EmailController) EditEmail(c *fiber.Ctx) error {
	var input struct {
		Subject string `json:"subject"`
		HTML    string `json:"html"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, err := ec.Automation.EditEmail(c.Params("id"), input.Subject, input.HTML)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Email updated",
		"email":   record,
	})
}
