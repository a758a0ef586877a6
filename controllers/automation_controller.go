package controller

import (
	"context"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"

	"outreachflow/worker"
)

type AutomationController struct {
	Logger     *log.Logger
	Automation *worker.AutomationWorker

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewAutomationController(logger *log.Logger, automation *worker.AutomationWorker) *AutomationController {
	return &AutomationController{
		Logger:     logger,
		Automation: automation,
	}
}

// StartAutomation arms the scheduler; starting twice is a no-op
func (ac *AutomationController) StartAutomation(c *fiber.Ctx) error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.Automation.Running() {
		return c.JSON(fiber.Map{
			"message": "Automation already running",
			"running": true,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := ac.Automation.Start(ctx); err != nil {
		cancel()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start automation",
		})
	}
	ac.cancel = cancel

	return c.JSON(fiber.Map{
		"message": "Automation started",
		"running": true,
	})
}

// StopAutomation flags the scheduler idle. Armed one-shot timers are left
// in place; they no-op when they fire.
func (ac *AutomationController) StopAutomation(c *fiber.Ctx) error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if ac.cancel != nil {
		ac.cancel()
		ac.cancel = nil
	}
	ac.Automation.Stop()

	return c.JSON(fiber.Map{
		"message": "Automation stopped",
		"running": false,
	})
}

// AutomationStatus reports whether the scheduler is active
func (ac *AutomationController) AutomationStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"running": ac.Automation.Running(),
	})
}
