package worker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"outreachflow/models"
)

func TestMembershipGuard(t *testing.T) {
	// Healthy membership without the skip flag lets the record progress
	assert.NoError(t, membershipGuard(models.ContactMembership{}, nil))

	// The skip-email policy blocks every transition
	err := membershipGuard(models.ContactMembership{SkipEmailSteps: true}, nil)
	assert.ErrorIs(t, err, ErrSkipEmailSteps)

	// A removed contact leaves the orphaned record untouched
	assert.Error(t, membershipGuard(models.ContactMembership{}, gorm.ErrRecordNotFound))
}

func TestMembershipGuardFailsClosedOnStoreError(t *testing.T) {
	dbErr := errors.New("connection reset")

	err := membershipGuard(models.ContactMembership{}, dbErr)
	assert.ErrorIs(t, err, dbErr)
}
