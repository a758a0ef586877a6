package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	controller "outreachflow/controllers"
	"outreachflow/middleware"
	"outreachflow/utils"
	"outreachflow/worker"
)

// Deps carries the shared collaborators built in main
type Deps struct {
	Automation *worker.AutomationWorker
	Enroller   *worker.Enroller
	Compose    *utils.ComposeEngine
	Settings   *utils.SettingsStore
	Accounts   *utils.AccountCache
	Coalescer  *utils.Coalescer
	Guard      *utils.FlightGuard
	Events     *controller.EventHub
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, d Deps) {
	sequenceController := controller.NewSequenceController(db, log.New(os.Stdout, "SEQUENCE: ", log.LstdFlags), d.Enroller, d.Events)
	stepController := controller.NewStepController(db, log.New(os.Stdout, "STEP: ", log.LstdFlags), d.Coalescer, d.Guard, d.Events)
	composeController := controller.NewComposeController(db, log.New(os.Stdout, "COMPOSE: ", log.LstdFlags), d.Compose, d.Settings, d.Accounts)
	emailController := controller.NewEmailController(db, log.New(os.Stdout, "EMAIL: ", log.LstdFlags), d.Automation)
	automationController := controller.NewAutomationController(log.New(os.Stdout, "AUTOMATION: ", log.LstdFlags), d.Automation)
	contactController := controller.NewContactController(db, log.New(os.Stdout, "CONTACT: ", log.LstdFlags), d.Accounts)
	settingsController := controller.NewSettingsController(log.New(os.Stdout, "SETTINGS: ", log.LstdFlags), d.Settings)

	api := app.Group("/api/v1", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Sequence routes
	sequence := api.Group("/sequences")
	sequence.Post("/", sequenceController.CreateSequence)
	sequence.Get("/", sequenceController.GetSequences)
	sequence.Get("/:id", sequenceController.ShowSequence)
	sequence.Put("/:id", sequenceController.UpdateSequence)
	sequence.Delete("/:id", sequenceController.DeleteSequence)

	// Step routes
	sequence.Post("/:id/steps", stepController.CreateStep)
	sequence.Put("/:id/steps/:stepId", stepController.UpdateStep)
	sequence.Delete("/:id/steps/:stepId", stepController.DeleteStep)
	sequence.Put("/:id/steps/:stepId/delay", stepController.UpdateStepDelay)
	sequence.Post("/:id/steps/:stepId/reorder", stepController.ReorderStep)

	// Drag session routes
	sequence.Post("/:id/drag/begin", stepController.DragBegin)
	sequence.Post("/:id/drag/move", stepController.DragMove)
	sequence.Post("/:id/drag/release", stepController.DragRelease)

	// Compose routes with rate limiting on generation
	sequence.Post("/:id/steps/:stepId/generate", middleware.ComposeRateLimiter(), composeController.GenerateEmail)
	sequence.Post("/:id/steps/:stepId/save", composeController.SaveGenerated)
	sequence.Put("/:id/steps/:stepId/mode", composeController.SetComposeMode)
	sequence.Get("/:id/steps/:stepId/preview", composeController.PreviewStep)
	api.Get("/templates", composeController.ListTemplates)

	// Enrollment routes
	sequence.Post("/:id/contacts", sequenceController.AddContact)
	sequence.Delete("/:id/contacts/:contactId", sequenceController.RemoveContact)

	// Email record routes
	email := api.Group("/emails")
	email.Get("/", emailController.GetEmails)
	email.Get("/:id", emailController.ShowEmail)
	email.Put("/:id", emailController.EditEmail)
	email.Post("/:id/approve", emailController.ApproveEmail)
	email.Post("/:id/reject", emailController.RejectEmail)

	// Automation routes
	automation := api.Group("/automation")
	automation.Post("/start", automationController.StartAutomation)
	automation.Post("/stop", automationController.StopAutomation)
	automation.Get("/status", automationController.AutomationStatus)

	// Contact and account routes
	contact := api.Group("/contacts")
	contact.Post("/", contactController.CreateContact)
	contact.Get("/", contactController.GetContacts)
	contact.Get("/:id", contactController.ShowContact)
	api.Post("/accounts", contactController.CreateAccount)

	// Settings routes
	api.Get("/settings", settingsController.GetSettings)
	api.Put("/settings", settingsController.UpdateSettings)

	// WebSocket route for domain events
	app.Get("/api/v1/events", websocket.New(func(c *websocket.Conn) {
		d.Events.HandleEventsWS(c)
	}))

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, d Deps) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup API routes
	SetupAPIRoutes(app, db, d)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
