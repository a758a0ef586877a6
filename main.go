package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"outreachflow/config"
	controller "outreachflow/controllers"
	"outreachflow/middleware"
	"outreachflow/routes"
	"outreachflow/utils"
	"outreachflow/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "OUTREACH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize Sentry when a DSN is configured
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	engineLogger := logrus.New()
	engineLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Initialize collaborator clients
	settingsStore := utils.NewSettingsStore(config.DB)
	aiClient := utils.NewHTTPAIClient(config.AppConfig.AIEndpointURL, func() string {
		return settingsStore.Get().AIAPIKey
	})
	sendClient := utils.NewHTTPSendClient(config.AppConfig.SendEndpointURL, utils.SMTPConfig{
		Host:     config.AppConfig.SMTPHost,
		Port:     config.AppConfig.SMTPPort,
		Username: config.AppConfig.SMTPUsername,
		Password: config.AppConfig.SMTPPassword,
	})

	// Initialize engines
	accountCache := utils.NewAccountCache(config.DB, config.AppConfig.Redis)
	composeEngine := utils.NewComposeEngine(aiClient, engineLogger)
	coalescer := utils.NewCoalescer(utils.DefaultSaveDebounce)
	guard := utils.NewFlightGuard()
	events := controller.NewEventHub(log.New(os.Stdout, "EVENTS: ", log.LstdFlags))

	// Initialize and start the automation worker
	automationWorker := worker.NewAutomationWorker(config.DB, aiClient, sendClient, settingsStore, accountCache, composeEngine, events, engineLogger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := automationWorker.Start(ctx); err != nil {
		logger.Printf("Automation worker failed to start: %v", err)
	}

	enroller := worker.NewEnroller(config.DB, automationWorker, engineLogger)

	// Setup routes
	routes.SetupRoutes(app, config.DB, routes.Deps{
		Automation: automationWorker,
		Enroller:   enroller,
		Compose:    composeEngine,
		Settings:   settingsStore,
		Accounts:   accountCache,
		Coalescer:  coalescer,
		Guard:      guard,
		Events:     events,
	})

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
