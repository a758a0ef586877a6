package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelForType(t *testing.T) {
	tests := []struct {
		stepType string
		channel  string
	}{
		{StepTypeAutoEmail, "email"},
		{StepTypeManualEmail, "email"},
		{StepTypePhoneCall, "phone"},
		{StepTypeLIConnect, "linkedin"},
		{StepTypeLIMessage, "linkedin"},
		{StepTypeLIViewProfile, "linkedin"},
		{StepTypeLIInteractPost, "linkedin"},
		{StepTypeCustomTask, "task"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.channel, ChannelForType(tt.stepType), tt.stepType)
	}
}

func TestIsEmailType(t *testing.T) {
	assert.True(t, IsEmailType(StepTypeAutoEmail))
	assert.True(t, IsEmailType(StepTypeManualEmail))
	assert.False(t, IsEmailType(StepTypePhoneCall))
	assert.False(t, IsEmailType(StepTypeLIMessage))
}

func TestValidStepType(t *testing.T) {
	for _, valid := range []string{
		StepTypeAutoEmail, StepTypeManualEmail, StepTypePhoneCall,
		StepTypeLIConnect, StepTypeLIMessage, StepTypeLIViewProfile,
		StepTypeLIInteractPost, StepTypeCustomTask,
	} {
		assert.True(t, ValidStepType(valid), valid)
	}
	assert.False(t, ValidStepType("sms"))
	assert.False(t, ValidStepType(""))
}

func TestClampDelay(t *testing.T) {
	assert.Equal(t, 0, ClampDelay(-10))
	assert.Equal(t, 0, ClampDelay(0))
	assert.Equal(t, 1440, ClampDelay(1440))
	assert.Equal(t, MaxDelayMinutes, ClampDelay(MaxDelayMinutes+1))
}
