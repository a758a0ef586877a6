package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []string{
	EmailStatusNotGenerated,
	EmailStatusGenerating,
	EmailStatusPendingApproval,
	EmailStatusApproved,
	EmailStatusRejected,
	EmailStatusSent,
	EmailStatusError,
}

func TestCanTransitionAllowedEdges(t *testing.T) {
	allowed := map[[2]string]bool{
		{EmailStatusNotGenerated, EmailStatusGenerating}:         true,
		{EmailStatusGenerating, EmailStatusPendingApproval}:      true,
		{EmailStatusGenerating, EmailStatusError}:                true,
		{EmailStatusPendingApproval, EmailStatusApproved}:        true,
		{EmailStatusPendingApproval, EmailStatusRejected}:        true,
		{EmailStatusApproved, EmailStatusSent}:                   true,
		{EmailStatusApproved, EmailStatusError}:                  true,
	}

	// Exactly the seven edges above are legal; everything else is rejected
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]string{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionStampsTimestamps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := EmailRecord{Status: EmailStatusNotGenerated}

	require.NoError(t, rec.Transition(EmailStatusGenerating, now))
	assert.Nil(t, rec.GeneratedAt)

	require.NoError(t, rec.Transition(EmailStatusPendingApproval, now))
	require.NotNil(t, rec.GeneratedAt)
	assert.Equal(t, now, *rec.GeneratedAt)

	later := now.Add(time.Hour)
	require.NoError(t, rec.Transition(EmailStatusApproved, later))
	require.NotNil(t, rec.ApprovedAt)
	assert.Equal(t, later, *rec.ApprovedAt)

	require.NoError(t, rec.Transition(EmailStatusSent, later))
	require.NotNil(t, rec.SentAt)
}

func TestTransitionRejectedStampsRejectedAt(t *testing.T) {
	now := time.Now()
	rec := EmailRecord{Status: EmailStatusPendingApproval}

	require.NoError(t, rec.Transition(EmailStatusRejected, now))
	require.NotNil(t, rec.RejectedAt)
	assert.Nil(t, rec.ApprovedAt)
}

func TestInvalidTransitionLeavesRecordUntouched(t *testing.T) {
	rec := EmailRecord{Status: EmailStatusSent}

	err := rec.Transition(EmailStatusApproved, time.Now())
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, EmailStatusSent, rec.Status)
	assert.Nil(t, rec.ApprovedAt)

	// Terminal states have no outgoing edges
	for _, terminal := range []string{EmailStatusRejected, EmailStatusSent, EmailStatusError} {
		for _, to := range allStatuses {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestDue(t *testing.T) {
	now := time.Now()
	rec := EmailRecord{ScheduledSendTime: now.Add(time.Minute)}
	assert.False(t, rec.Due(now))
	assert.True(t, rec.Due(now.Add(time.Minute)))
	assert.True(t, rec.Due(now.Add(2*time.Minute)))
}
