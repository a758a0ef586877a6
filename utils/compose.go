package utils

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"outreachflow/models"
)

var (
	ErrNotEmailStep  = errors.New("step is not an email step")
	ErrNotAIMode     = errors.New("step compose mode is not ai")
	ErrNothingToSave = errors.New("no generated output to save")
)

// ComposeEngine drives the per-step AI composition lifecycle:
// draft -> generated -> saved. Generation writes only the transient
// AIOutput; an explicit save is the single operation that touches the
// step's persisted subject and body.
type ComposeEngine struct {
	AI     AIClient
	Logger *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewComposeEngine(ai AIClient, logger *logrus.Logger) *ComposeEngine {
	return &ComposeEngine{
		AI:     ai,
		Logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedRandom replaces the CTA draw source, used by tests for determinism
func (ce *ComposeEngine) SeedRandom(seed int64) {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	ce.rng = rand.New(rand.NewSource(seed))
}

// ResolvePrompt builds the final prompt text for a step against the
// previewed contact: catalogue template (or the step's custom prompt),
// randomized CTA line, bracket tokens substituted.
func (ce *ComposeEngine) ResolvePrompt(step *models.SequenceStep, snap Snapshot) (string, error) {
	prompt := step.Data.AIPrompt
	if prompt == "" {
		name := step.Data.AITemplate
		if name == "" {
			name = TemplateFirstEmailIntro
		}
		role := InferRole(snap.Contact.Position)

		ce.mu.Lock()
		built, err := BuildPrompt(name, step.Data.CTAEnabled, role, ce.rng)
		ce.mu.Unlock()
		if err != nil {
			return "", err
		}
		prompt = built
	}
	return SubstitutePrompt(prompt, snap), nil
}

// Generate resolves the step's prompt and calls the AI service. On success
// the result lands in the transient AIOutput and the lifecycle advances to
// generated; the persisted subject/body are not touched. On failure the
// step is left exactly as it was.
func (ce *ComposeEngine) Generate(ctx context.Context, step *models.SequenceStep, snap Snapshot, settings models.Settings) error {
	if !models.IsEmailType(step.Type) {
		return ErrNotEmailStep
	}
	if step.Data.Mode != models.ComposeModeAI {
		return ErrNotAIMode
	}

	prompt, err := ce.ResolvePrompt(step, snap)
	if err != nil {
		return err
	}

	resp, err := ce.AI.GenerateEmail(ctx, GenerateRequest{
		Prompt: prompt,
		Mode:   step.Type,
		Recipient: GenerateContact{
			FirstName: snap.Contact.FirstName,
			LastName:  snap.Contact.LastName,
			Email:     snap.Contact.Email,
			Company:   CompanyName(snap),
			Title:     snap.Contact.Position,
		},
		SenderName:         settings.SenderName,
		MarketContext:      settings.MarketContext,
		MeetingPreferences: settings.MeetingPreferences,
		TemplateType:       step.Data.AITemplate,
	})
	if err != nil {
		ce.Logger.WithError(err).WithField("step_id", step.ID).Warn("AI generation failed")
		return fmt.Errorf("generation failed: %w", err)
	}

	step.Data.AIOutput = &models.AIOutput{Subject: resp.Subject, HTML: resp.HTML}
	step.Data.AIStatus = models.AIStatusGenerated
	return nil
}

// SaveToStep copies the generated output into the step's persisted subject
// and body, advances the lifecycle to saved, and stamps SavedAt. It is a
// no-op error when no successful generation preceded it.
func (ce *ComposeEngine) SaveToStep(step *models.SequenceStep) error {
	if step.Data.AIOutput == nil {
		return ErrNothingToSave
	}
	now := time.Now()
	step.Data.Subject = step.Data.AIOutput.Subject
	step.Data.Body = step.Data.AIOutput.HTML
	step.Data.AIStatus = models.AIStatusSaved
	step.Data.SavedAt = &now
	return nil
}

// SetMode flips the compose mode. Switching to manual keeps any prior
// AIOutput so the user can switch back without losing work.
func (ce *ComposeEngine) SetMode(step *models.SequenceStep, mode string) error {
	if mode != models.ComposeModeManual && mode != models.ComposeModeAI {
		return fmt.Errorf("unknown compose mode %q", mode)
	}
	step.Data.Mode = mode
	return nil
}

// PreviewHTML renders the step body against a snapshot, appending the
// signature block when enabled in settings.
func PreviewHTML(step *models.SequenceStep, snap Snapshot, settings models.Settings) string {
	body := RenderPreview(ParseBody(step.Data.Body), snap)
	if settings.IncludeSignature && settings.SignatureHTML != "" {
		body += "<br/>" + settings.SignatureHTML
	}
	return body
}
