package controller

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"outreachflow/models"
	"outreachflow/utils"
)

type StepController struct {
	DB        *gorm.DB
	Logger    *log.Logger
	Coalescer *utils.Coalescer
	Guard     *utils.FlightGuard
	Drag      *utils.DragEngine
	Events    *EventHub
}

func NewStepController(db *gorm.DB, logger *log.Logger, coalescer *utils.Coalescer, guard *utils.FlightGuard, events *EventHub) *StepController {
	return &StepController{
		DB:        db,
		Logger:    logger,
		Coalescer: coalescer,
		Guard:     guard,
		Drag:      utils.NewDragEngine(),
		Events:    events,
	}
}

// CreateStep appends a step at the end of the sequence
func (sc *StepController) CreateStep(c *fiber.Ctx) error {
	sequenceID := utils.ParseUint(c.Params("id"))

	var input struct {
		Type         string          `json:"type" validate:"required"`
		DelayMinutes int             `json:"delay_minutes"`
		Data         models.StepData `json:"data"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !models.ValidStepType(input.Type) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown step type %q", input.Type),
		})
	}

	var sequence models.Sequence
	if err := sc.DB.First(&sequence, sequenceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Sequence not found",
		})
	}

	var count int64
	sc.DB.Model(&models.SequenceStep{}).Where("sequence_id = ?", sequenceID).Count(&count)

	data := input.Data
	if models.IsEmailType(input.Type) {
		if data.Mode == "" {
			data.Mode = models.ComposeModeManual
		}
		if data.AIStatus == "" {
			data.AIStatus = models.AIStatusDraft
		}
	}

	step := models.SequenceStep{
		SequenceID:   sequenceID,
		Type:         input.Type,
		Channel:      models.ChannelForType(input.Type),
		DelayMinutes: models.ClampDelay(input.DelayMinutes),
		Position:     int(count),
		Data:         data,
	}
	if err := sc.DB.Create(&step).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create step",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Step created successfully",
		"step":    step,
	})
}

// UpdateStep applies step edits through the debounced, single-flight save
// path. The response acknowledges the scheduled write, not its completion.
func (sc *StepController) UpdateStep(c *fiber.Ctx) error {
	sequenceID := c.Params("id")
	stepID := c.Params("stepId")

	var input struct {
		DelayMinutes *int             `json:"delay_minutes"`
		Paused       *bool            `json:"paused"`
		Collapsed    *bool            `json:"collapsed"`
		Data         *models.StepData `json:"data"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Any pending debounced save must land before the reload, otherwise
	// this edit merges onto stale state and drops the earlier patch.
	sc.Coalescer.Flush("step:" + stepID)

	var step models.SequenceStep
	if err := sc.DB.Where("id = ? AND sequence_id = ?", stepID, sequenceID).First(&step).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Step not found",
		})
	}

	if input.DelayMinutes != nil {
		step.DelayMinutes = models.ClampDelay(*input.DelayMinutes)
	}
	if input.Paused != nil {
		step.Paused = *input.Paused
	}
	if input.Collapsed != nil {
		step.Collapsed = *input.Collapsed
	}
	if input.Data != nil {
		data := *input.Data
		// Mode switches never discard a previously generated output
		if data.AIOutput == nil {
			data.AIOutput = step.Data.AIOutput
		}
		if data.AIStatus == "" {
			data.AIStatus = step.Data.AIStatus
		}
		if data.SavedAt == nil {
			data.SavedAt = step.Data.SavedAt
		}
		step.Data = data
	}

	saved := step
	sc.Coalescer.Schedule("step:"+stepID, func() {
		sc.Guard.Do("sequence:"+sequenceID, func() {
			if err := sc.DB.Save(&saved).Error; err != nil {
				sc.Logger.Printf("Failed to persist step %s: %v", stepID, err)
			}
		})
	})

	return c.JSON(fiber.Map{
		"message": "Step update scheduled",
		"step":    step,
	})
}

// UpdateStepDelay edits only the relative delay, accepting either minutes
// or the legacy free-text spec.
func (sc *StepController) UpdateStepDelay(c *fiber.Ctx) error {
	sequenceID := c.Params("id")
	stepID := c.Params("stepId")

	var input struct {
		DelayMinutes *int   `json:"delay_minutes"`
		DelaySpec    string `json:"delay_spec"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var step models.SequenceStep
	if err := sc.DB.Where("id = ? AND sequence_id = ?", stepID, sequenceID).First(&step).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Step not found",
		})
	}

	switch {
	case input.DelayMinutes != nil:
		step.DelayMinutes = models.ClampDelay(*input.DelayMinutes)
	case input.DelaySpec != "":
		step.DelayMinutes = models.ClampDelay(utils.ParseDelay(input.DelaySpec).Minutes())
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "delay_minutes or delay_spec is required",
		})
	}

	if err := sc.DB.Save(&step).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update delay",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Delay updated successfully",
		"step":        step,
		"delay_label": utils.FormatDelay(step.DelayMinutes),
	})
}

// DeleteStep removes a step and renumbers the remainder in one transaction
func (sc *StepController) DeleteStep(c *fiber.Ctx) error {
	sequenceID := utils.ParseUint(c.Params("id"))
	stepID := utils.ParseUint(c.Params("stepId"))

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND sequence_id = ?", stepID, sequenceID).
			Delete(&models.SequenceStep{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var remaining []models.SequenceStep
		if err := tx.Where("sequence_id = ?", sequenceID).
			Order("position ASC").Find(&remaining).Error; err != nil {
			return err
		}
		utils.Renumber(remaining)
		for i := range remaining {
			if err := tx.Model(&models.SequenceStep{}).
				Where("id = ?", remaining[i].ID).
				Update("position", remaining[i].Position).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Step not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete step",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Step deleted successfully",
	})
}

// ReorderStep commits a reorder immediately, bypassing the debounce. A
// same-slot target is a no-op with no write.
func (sc *StepController) ReorderStep(c *fiber.Ctx) error {
	sequenceID := utils.ParseUint(c.Params("id"))
	stepID := utils.ParseUint(c.Params("stepId"))

	var input struct {
		TargetIndex int `json:"target_index"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	changed, steps, err := sc.commitReorder(sequenceID, stepID, input.TargetIndex)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reorder step",
		})
	}

	return c.JSON(fiber.Map{
		"changed": changed,
		"steps":   steps,
	})
}

// DragBegin registers a press-and-hold candidate for a drag gesture
func (sc *StepController) DragBegin(c *fiber.Ctx) error {
	sequenceID := utils.ParseUint(c.Params("id"))

	var input struct {
		StepID      uint    `json:"step_id" validate:"required"`
		X           float64 `json:"x"`
		Y           float64 `json:"y"`
		Interactive bool    `json:"interactive"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var steps []models.SequenceStep
	if err := sc.DB.Where("sequence_id = ?", sequenceID).
		Order("position ASC").Find(&steps).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load steps",
		})
	}

	origin := -1
	for i := range steps {
		if steps[i].ID == input.StepID {
			origin = i
			break
		}
	}
	if origin == -1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Step not found",
		})
	}

	ev := utils.PointerEvent{X: input.X, Y: input.Y, At: time.Now()}
	if err := sc.Drag.Press(input.StepID, origin, len(steps), ev, input.Interactive); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Press registered",
		"origin":  origin,
	})
}

// DragMove feeds a pointer sample into the active gesture. Midpoints are
// the viewport midpoints of every step excluding the dragged one, in
// order; scroll is the autoscroll speed hint for the adapter.
func (sc *StepController) DragMove(c *fiber.Ctx) error {
	var input struct {
		X            float64   `json:"x"`
		Y            float64   `json:"y"`
		Midpoints    []float64 `json:"midpoints"`
		ViewportTop  float64   `json:"viewport_top"`
		ViewportBot  float64   `json:"viewport_bottom"`
		ScrollSpeed  float64   `json:"scroll_base_speed"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ev := utils.PointerEvent{X: input.X, Y: input.Y, At: time.Now()}
	index, active := sc.Drag.Move(ev, input.Midpoints)

	base := input.ScrollSpeed
	if base == 0 {
		base = 8
	}
	scroll := 0.0
	if active && input.ViewportBot > input.ViewportTop {
		scroll = utils.AutoscrollSpeed(input.Y, input.ViewportTop, input.ViewportBot, base)
	}

	return c.JSON(fiber.Map{
		"active": active,
		"index":  index,
		"scroll": scroll,
	})
}

// DragRelease commits the gesture. An unchanged slot skips persistence.
func (sc *StepController) DragRelease(c *fiber.Ctx) error {
	sequenceID := utils.ParseUint(c.Params("id"))

	commit, err := sc.Drag.Release()
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !commit.Changed {
		return c.JSON(fiber.Map{
			"changed": false,
		})
	}

	changed, steps, err := sc.commitReorder(sequenceID, commit.StepID, commit.TargetIndex)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to commit reorder",
		})
	}

	return c.JSON(fiber.Map{
		"changed": changed,
		"steps":   steps,
	})
}

// commitReorder runs the ordering engine and persists the renumbered
// positions in one transaction.
func (sc *StepController) commitReorder(sequenceID, stepID uint, targetIndex int) (bool, []models.SequenceStep, error) {
	var steps []models.SequenceStep
	if err := sc.DB.Where("sequence_id = ?", sequenceID).
		Order("position ASC").Find(&steps).Error; err != nil {
		return false, nil, err
	}

	reordered, changed := utils.Reorder(steps, stepID, targetIndex)
	if !changed {
		return false, steps, nil
	}

	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		for i := range reordered {
			if err := tx.Model(&models.SequenceStep{}).
				Where("id = ?", reordered[i].ID).
				Update("position", reordered[i].Position).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, nil, err
	}

	return true, reordered, nil
}
