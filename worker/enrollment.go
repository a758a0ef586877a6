package worker

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"outreachflow/models"
	"outreachflow/utils"
)

// Enroller turns a sequence membership into scheduled email records. Each
// step's delay is anchored at the enrollment time; non-email steps keep
// their due times for task surfacing but never produce email records.
type Enroller struct {
	DB         *gorm.DB
	Automation *AutomationWorker
	Logger     *logrus.Logger

	// Verify is swappable so tests avoid network lookups
	Verify func(email string) utils.VerificationResult
}

func NewEnroller(db *gorm.DB, automation *AutomationWorker, logger *logrus.Logger) *Enroller {
	return &Enroller{
		DB:         db,
		Automation: automation,
		Logger:     logger,
		Verify:     utils.VerifyContactEmail,
	}
}

// DueTimes computes the absolute due time of every step from the
// enrollment time. Steps store only their own relative delay; this is the
// one place cumulative scheduling is derived.
func DueTimes(steps []models.SequenceStep, enrolledAt time.Time) []time.Time {
	dues := make([]time.Time, len(steps))
	for i := range steps {
		dues[i] = enrolledAt.Add(time.Duration(steps[i].DelayMinutes) * time.Minute)
	}
	return dues
}

// Enroll creates the membership and fans out one email record per email
// step. Contacts without a usable address get skip_email_steps set and no
// records are ever created for them.
func (e *Enroller) Enroll(sequenceID, contactID uint) (*models.ContactMembership, []models.EmailRecord, error) {
	var sequence models.Sequence
	if err := e.DB.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&sequence, sequenceID).Error; err != nil {
		return nil, nil, fmt.Errorf("sequence not found: %w", err)
	}

	var contact models.Contact
	if err := e.DB.First(&contact, contactID).Error; err != nil {
		return nil, nil, fmt.Errorf("contact not found: %w", err)
	}

	var existing models.ContactMembership
	if err := e.DB.Where("sequence_id = ? AND contact_id = ?", sequenceID, contactID).
		First(&existing).Error; err == nil {
		return nil, nil, fmt.Errorf("contact %d is already enrolled", contactID)
	}

	verification := e.Verify(contact.Email)
	membership := models.ContactMembership{
		SequenceID:     sequenceID,
		ContactID:      contactID,
		HasEmail:       verification.FormatValid,
		SkipEmailSteps: !verification.Deliverable,
	}

	enrolledAt := time.Now()
	if e.Automation != nil {
		enrolledAt = e.Automation.now()
	}
	dues := DueTimes(sequence.Steps, enrolledAt)

	var records []models.EmailRecord
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}

		if !membership.SkipEmailSteps {
			for i, step := range sequence.Steps {
				if !models.IsEmailType(step.Type) || step.Paused {
					continue
				}
				rec := models.EmailRecord{
					ID:                uuid.New().String(),
					SequenceID:        sequenceID,
					StepID:            step.ID,
					ContactID:         contactID,
					Status:            models.EmailStatusNotGenerated,
					ScheduledSendTime: dues[i],
				}
				if err := tx.Create(&rec).Error; err != nil {
					return fmt.Errorf("failed to create email record: %w", err)
				}
				records = append(records, rec)
			}
		}

		return tx.Model(&models.Sequence{}).Where("id = ?", sequenceID).
			Updates(map[string]interface{}{
				"record_count": gorm.Expr("record_count + ?", len(records)),
				"active_count": gorm.Expr("active_count + ?", 1),
			}).Error
	})
	if err != nil {
		return nil, nil, err
	}

	if e.Automation != nil {
		for i := range records {
			e.Automation.ScheduleEmailCheck(&records[i])
		}
	}

	e.Logger.WithFields(logrus.Fields{
		"sequence_id": sequenceID,
		"contact_id":  contactID,
		"records":     len(records),
	}).Info("contact enrolled")

	return &membership, records, nil
}

// Unenroll removes the membership and any records that have not been sent
func (e *Enroller) Unenroll(sequenceID, contactID uint) error {
	return e.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("sequence_id = ? AND contact_id = ?", sequenceID, contactID).
			Delete(&models.ContactMembership{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("contact %d is not enrolled", contactID)
		}

		if err := tx.Where("sequence_id = ? AND contact_id = ? AND status <> ?",
			sequenceID, contactID, models.EmailStatusSent).
			Delete(&models.EmailRecord{}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Sequence{}).Where("id = ? AND active_count > 0", sequenceID).
			Update("active_count", gorm.Expr("active_count - ?", 1)).Error
	})
}
