package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"outreachflow/config"
	"outreachflow/models"
	"outreachflow/utils"
)

// ErrSkipEmailSteps is returned when a check lands on a contact whose
// membership excludes email steps. Such records are never transitioned.
var ErrSkipEmailSteps = errors.New("contact membership skips email steps")

// EventPublisher pushes domain events ("emails_updated", "approval_required",
// "contact_added", ...) to interested listeners.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

// AutomationWorker progresses email records through their lifecycle with
// one-shot timers plus a periodic safety-net sweep. It is not a durable
// scheduler: timers die with the process, and the external send cron stays
// the system of record.
type AutomationWorker struct {
	DB       *gorm.DB
	AI       utils.AIClient
	Sender   utils.SendClient
	Settings *utils.SettingsStore
	Accounts utils.AccountLookup
	Compose  *utils.ComposeEngine
	Events   EventPublisher
	Logger   *logrus.Logger

	cron    *cron.Cron
	now     func() time.Time
	mu      sync.Mutex
	timers  map[string]*time.Timer
	running bool
}

func NewAutomationWorker(db *gorm.DB, ai utils.AIClient, sender utils.SendClient, settings *utils.SettingsStore, accounts utils.AccountLookup, compose *utils.ComposeEngine, events EventPublisher, logger *logrus.Logger) *AutomationWorker {
	return &AutomationWorker{
		DB:       db,
		AI:       ai,
		Sender:   sender,
		Settings: settings,
		Accounts: accounts,
		Compose:  compose,
		Events:   events,
		Logger:   logger,
		now:      time.Now,
		timers:   make(map[string]*time.Timer),
	}
}

// Start arms the 5-minute sweep and schedules a check for every live
// record already in the store.
func (w *AutomationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.cron = cron.New()
	if _, err := w.cron.AddFunc("@every 5m", w.Sweep); err != nil {
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	w.cron.Start()
	w.mu.Unlock()

	w.Logger.Info("automation worker started")

	var pending []models.EmailRecord
	if err := w.DB.Where("status IN ?", []string{
		models.EmailStatusNotGenerated,
		models.EmailStatusPendingApproval,
		models.EmailStatusApproved,
	}).Find(&pending).Error; err != nil {
		w.Logger.WithError(err).Error("failed to load pending email records")
		return err
	}
	for i := range pending {
		w.ScheduleEmailCheck(&pending[i])
	}

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop cancels the sweep and flags the engine idle. It intentionally does
// not cancel armed one-shot per-email timers; a timer that later fires
// sees the idle flag and does nothing.
func (w *AutomationWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	if w.cron != nil {
		w.cron.Stop()
	}
	w.Logger.Info("automation worker stopped")
}

// Running reports whether the engine is active
func (w *AutomationWorker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// ScheduleEmailCheck checks a due record immediately, otherwise arms a
// one-shot timer for exactly the remaining delta. No polling while a
// record is not due.
func (w *AutomationWorker) ScheduleEmailCheck(rec *models.EmailRecord) {
	delta := rec.ScheduledSendTime.Sub(w.now())
	if delta <= 0 {
		go w.checkEmail(rec.ID)
		return
	}

	id := rec.ID
	w.mu.Lock()
	if existing, ok := w.timers[id]; ok {
		existing.Stop()
	}
	w.timers[id] = time.AfterFunc(delta, func() {
		w.mu.Lock()
		delete(w.timers, id)
		w.mu.Unlock()
		w.checkEmail(id)
	})
	w.mu.Unlock()
}

// checkEmail advances one email record. The record is always reloaded from
// the store first so the engine and store cannot silently diverge.
func (w *AutomationWorker) checkEmail(id string) {
	if !w.Running() {
		return
	}

	var rec models.EmailRecord
	if err := w.DB.First(&rec, "id = ?", id).Error; err != nil {
		w.Logger.WithError(err).WithField("email_id", id).Warn("email record not found")
		return
	}

	if !rec.Due(w.now()) {
		w.ScheduleEmailCheck(&rec)
		return
	}

	if err := w.guardMembership(&rec); err != nil {
		w.Logger.WithError(err).WithField("email_id", id).Debug("email check blocked")
		return
	}

	switch rec.Status {
	case models.EmailStatusNotGenerated:
		w.generate(&rec)
	case models.EmailStatusPendingApproval:
		w.raiseApproval(&rec)
	case models.EmailStatusApproved:
		w.handOffSend(&rec)
	}
}

// CheckEmail is the exported entry used by the sweep and by tests
func (w *AutomationWorker) CheckEmail(id string) {
	w.checkEmail(id)
}

// guardMembership blocks any transition for contacts whose membership
// skips email steps.
func (w *AutomationWorker) guardMembership(rec *models.EmailRecord) error {
	var membership models.ContactMembership
	err := w.DB.Where("sequence_id = ? AND contact_id = ?", rec.SequenceID, rec.ContactID).
		First(&membership).Error
	return membershipGuard(membership, err)
}

// membershipGuard decides whether a record may progress given the
// membership load result. A store failure blocks the tick so an unhealthy
// store can never bypass the skip-email policy; the sweep retries later.
func membershipGuard(membership models.ContactMembership, err error) error {
	if err != nil {
		// A missing membership means the contact was removed; leave the
		// record alone rather than progressing an orphan.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("membership not found")
		}
		return fmt.Errorf("membership lookup failed: %w", err)
	}
	if membership.SkipEmailSteps {
		return ErrSkipEmailSteps
	}
	return nil
}

// generate moves not_generated -> generating -> pending_approval|error
func (w *AutomationWorker) generate(rec *models.EmailRecord) {
	now := w.now()
	if err := rec.Transition(models.EmailStatusGenerating, now); err != nil {
		w.Logger.WithError(err).Warn("rejected transition")
		return
	}
	if err := w.persist(rec); err != nil {
		return
	}

	var step models.SequenceStep
	if err := w.DB.First(&step, rec.StepID).Error; err != nil {
		w.fail(rec, fmt.Sprintf("step %d not found", rec.StepID))
		return
	}
	var contact models.Contact
	if err := w.DB.Preload("Account").First(&contact, rec.ContactID).Error; err != nil {
		w.fail(rec, fmt.Sprintf("contact %d not found", rec.ContactID))
		return
	}

	// Same snapshot shape as the preview path so the company fallback
	// chain resolves identically in automated generation.
	settings := w.Settings.Get()
	snap := utils.Snapshot{
		Contact:    contact,
		Account:    contact.Account,
		SenderName: settings.SenderName,
		Accounts:   w.Accounts,
	}

	prompt, err := w.Compose.ResolvePrompt(&step, snap)
	if err != nil {
		w.fail(rec, err.Error())
		return
	}

	resp, err := w.AI.GenerateEmail(context.Background(), utils.GenerateRequest{
		Prompt: prompt,
		Mode:   step.Type,
		Recipient: utils.GenerateContact{
			FirstName: contact.FirstName,
			LastName:  contact.LastName,
			Email:     contact.Email,
			Company:   utils.CompanyName(snap),
			Title:     contact.Position,
		},
		SenderName:         settings.SenderName,
		MarketContext:      settings.MarketContext,
		MeetingPreferences: settings.MeetingPreferences,
		TemplateType:       step.Data.AITemplate,
	})
	if err != nil {
		// Transient failures are retried only by the sweep, never inline
		w.fail(rec, err.Error())
		return
	}

	rec.Subject = resp.Subject
	rec.HTML = resp.HTML
	if err := rec.Transition(models.EmailStatusPendingApproval, w.now()); err != nil {
		w.Logger.WithError(err).Warn("rejected transition")
		return
	}
	if err := w.persist(rec); err != nil {
		return
	}

	w.publish("emails_updated", rec)
	w.raiseApproval(rec)
}

// raiseApproval surfaces a pending_approval record to the user
func (w *AutomationWorker) raiseApproval(rec *models.EmailRecord) {
	w.publish("approval_required", rec)
}

// handOffSend delivers an approved record through the send collaborator
func (w *AutomationWorker) handOffSend(rec *models.EmailRecord) {
	senderName, senderEmail := w.Settings.SenderIdentity()
	if senderEmail == "" {
		senderEmail = config.AppConfig.FromEmail
	}

	resp, err := w.Sender.Send(utils.SendRequest{
		To:          w.contactEmail(rec.ContactID),
		Subject:     rec.Subject,
		Content:     rec.HTML,
		From:        senderEmail,
		FromName:    senderName,
		IsHTMLEmail: true,
	})
	if err != nil {
		w.fail(rec, err.Error())
		return
	}

	rec.TrackingID = resp.TrackingID
	rec.MessageID = resp.MessageID
	if err := rec.Transition(models.EmailStatusSent, w.now()); err != nil {
		w.Logger.WithError(err).Warn("rejected transition")
		return
	}
	if err := w.persist(rec); err != nil {
		return
	}
	w.publish("emails_updated", rec)
}

// Sweep is the recurring safety net: it re-triggers checks for records
// still not generated and past due, catching missed one-shot timers.
func (w *AutomationWorker) Sweep() {
	if !w.Running() {
		return
	}

	var overdue []models.EmailRecord
	if err := w.DB.Where("status = ? AND scheduled_send_time <= ?",
		models.EmailStatusNotGenerated, w.now()).Find(&overdue).Error; err != nil {
		w.Logger.WithError(err).Error("sweep query failed")
		return
	}

	for i := range overdue {
		w.checkEmail(overdue[i].ID)
	}
}

// ApproveEmail reloads the persisted record and flips it to approved. The
// actual send happens later on the record's scheduled check, never inside
// the approval call, so a double send cannot race here.
func (w *AutomationWorker) ApproveEmail(id string) (*models.EmailRecord, error) {
	var rec models.EmailRecord
	if err := w.DB.First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("email record not found: %w", err)
	}
	if err := rec.Transition(models.EmailStatusApproved, w.now()); err != nil {
		return nil, err
	}
	if err := w.persist(&rec); err != nil {
		return nil, err
	}
	w.publish("emails_updated", &rec)
	w.ScheduleEmailCheck(&rec)
	return &rec, nil
}

// RejectEmail reloads the persisted record and flips it to rejected
func (w *AutomationWorker) RejectEmail(id string) (*models.EmailRecord, error) {
	var rec models.EmailRecord
	if err := w.DB.First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("email record not found: %w", err)
	}
	if err := rec.Transition(models.EmailStatusRejected, w.now()); err != nil {
		return nil, err
	}
	if err := w.persist(&rec); err != nil {
		return nil, err
	}
	w.publish("emails_updated", &rec)
	return &rec, nil
}

// EditEmail reloads the persisted record and updates its content without
// touching the lifecycle.
func (w *AutomationWorker) EditEmail(id, subject, html string) (*models.EmailRecord, error) {
	var rec models.EmailRecord
	if err := w.DB.First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("email record not found: %w", err)
	}
	rec.Subject = subject
	rec.HTML = html
	if err := w.persist(&rec); err != nil {
		return nil, err
	}
	w.publish("emails_updated", &rec)
	return &rec, nil
}

// fail converts a failure into the record's error state where the
// lifecycle allows it (generating or approved).
func (w *AutomationWorker) fail(rec *models.EmailRecord, message string) {
	rec.ErrorMessage = message
	if err := rec.Transition(models.EmailStatusError, w.now()); err != nil {
		w.Logger.WithError(err).WithField("email_id", rec.ID).Warn("cannot mark record failed")
		return
	}
	if err := w.persist(rec); err != nil {
		return
	}
	w.publish("emails_updated", rec)
}

// persist saves the record, logging and reporting failures. In-memory
// state is kept as last-known-good; there is no optimistic rollback.
func (w *AutomationWorker) persist(rec *models.EmailRecord) error {
	if err := w.DB.Save(rec).Error; err != nil {
		w.Logger.WithError(err).WithField("email_id", rec.ID).Error("failed to persist email record")
		sentry.CaptureException(err)
		return err
	}
	return nil
}

func (w *AutomationWorker) publish(event string, payload interface{}) {
	if w.Events != nil {
		w.Events.Publish(event, payload)
	}
}

func (w *AutomationWorker) contactEmail(contactID uint) string {
	var contact models.Contact
	if err := w.DB.First(&contact, contactID).Error; err != nil {
		return ""
	}
	return contact.Email
}

// SetClock overrides the worker clock, used by tests
func (w *AutomationWorker) SetClock(now func() time.Time) {
	w.now = now
}
