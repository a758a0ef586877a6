package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"outreachflow/models"
	"outreachflow/utils"
)

type ContactController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Accounts *utils.AccountCache
}

func NewContactController(db *gorm.DB, logger *log.Logger, accounts *utils.AccountCache) *ContactController {
	return &ContactController{
		DB:       db,
		Logger:   logger,
		Accounts: accounts,
	}
}

// CreateContact registers a contact, optionally linking an account
func (cc *ContactController) CreateContact(c *fiber.Ctx) error {
	var input struct {
		Email     string `json:"email" validate:"required,email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Company   string `json:"company"`
		Position  string `json:"position"`
		Phone     string `json:"phone"`
		Website   string `json:"website"`
		AccountID *uint  `json:"account_id"`
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

	contact := models.Contact{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Company:   input.Company,
		Position:  input.Position,
		Phone:     input.Phone,
		Website:   input.Website,
		AccountID: input.AccountID,
	}
	if err := cc.DB.Create(&contact).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create contact",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Contact created successfully",
		"contact": contact,
	})
}

// GetContacts returns all contacts
func (cc *ContactController) GetContacts(c *fiber.Ctx) error {
	var contacts []models.Contact
	if err := cc.DB.Find(&contacts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch contacts",
		})
	}
	return c.JSON(contacts)
}

// ShowContact returns a contact with its account preloaded
func (cc *ContactController) ShowContact(c *fiber.Ctx) error {
	var contact models.Contact
	if err := cc.DB.Preload("Account").First(&contact, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Contact not found",
		})
	}

	// Warm the lookup cache so previews resolve without another query
	if contact.Account != nil {
		cc.Accounts.Put(contact.Account)
	}

	return c.JSON(contact)
}

// CreateAccount registers an account for company-name resolution
func (cc *ContactController) CreateAccount(c *fiber.Ctx) error {
	var input struct {
		Name     string `json:"name" validate:"required"`
		Domain   string `json:"domain"`
		Industry string `json:"industry"`
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

	account := models.Account{
		Name:     input.Name,
		Domain:   input.Domain,
		Industry: input.Industry,
	}
	if err := cc.DB.Create(&account).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create account",
		})
	}
	cc.Accounts.Put(&account)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created successfully",
		"account": account,
	})
}
