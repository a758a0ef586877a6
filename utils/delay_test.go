package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDelay(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want Delay
	}{
		{"days", "2 days", Delay{Amount: 2, Unit: UnitDay}},
		{"hours", "3 hours", Delay{Amount: 3, Unit: UnitHour}},
		{"singular day", "1 day", Delay{Amount: 1, Unit: UnitDay}},
		{"minutes", "45 minutes", Delay{Amount: 45, Unit: UnitMinute}},
		{"min abbreviation", "10 min", Delay{Amount: 10, Unit: UnitMinute}},
		{"weeks", "2 weeks", Delay{Amount: 2, Unit: UnitWeek}},
		{"bare number is minutes", "90", Delay{Amount: 90, Unit: UnitMinute}},
		{"empty defaults to one day", "", Delay{Amount: 1, Unit: UnitDay}},
		{"no number defaults to one day", "soon", Delay{Amount: 1, Unit: UnitDay}},
		{"unknown unit defaults to one day", "5 fortnights", Delay{Amount: 1, Unit: UnitDay}},
		{"mixed case", "2 Days", Delay{Amount: 2, Unit: UnitDay}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDelay(tt.spec))
		})
	}
}

func TestParseDelayEarliestKeywordWins(t *testing.T) {
	// Both keywords present; the one appearing first in the text governs
	got := ParseDelay("2 hours each day")
	assert.Equal(t, Delay{Amount: 2, Unit: UnitHour}, got)
}

func TestCalculateSendTime(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		spec string
		want time.Duration
	}{
		{"two days", "2 days", 48 * time.Hour},
		{"three hours", "3 hours", 3 * time.Hour},
		{"one day", "1 day", 24 * time.Hour},
		{"default on garbage", "whenever", 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateSendTime(base, tt.spec)
			assert.Equal(t, base.Add(tt.want), got)
		})
	}
}

func TestNewDelayValidation(t *testing.T) {
	assert.Equal(t, Delay{Amount: 1, Unit: UnitDay}, NewDelay(0, UnitHour))
	assert.Equal(t, Delay{Amount: 1, Unit: UnitDay}, NewDelay(-3, UnitMinute))
	assert.Equal(t, Delay{Amount: 1, Unit: UnitDay}, NewDelay(2, DelayUnit("fortnight")))
	assert.Equal(t, Delay{Amount: 2, Unit: UnitWeek}, NewDelay(2, UnitWeek))
}

func TestDelayMinutes(t *testing.T) {
	assert.Equal(t, 1440, Delay{Amount: 1, Unit: UnitDay}.Minutes())
	assert.Equal(t, 10080, Delay{Amount: 1, Unit: UnitWeek}.Minutes())
	assert.Equal(t, 180, Delay{Amount: 3, Unit: UnitHour}.Minutes())
}

func TestFormatDelay(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "immediately"},
		{-5, "immediately"},
		{1, "1 minute"},
		{60, "1 hour"},
		{90, "1 hour 30 minutes"},
		{120, "2 hours"},
		{1441, "24 hours 1 minute"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDelay(tt.minutes), "minutes=%d", tt.minutes)
	}
}

func TestFormatDelayShort(t *testing.T) {
	assert.Equal(t, "now", FormatDelayShort(0))
	assert.Equal(t, "2d", FormatDelayShort(2880))
	assert.Equal(t, "3h", FormatDelayShort(180))
	assert.Equal(t, "45m", FormatDelayShort(45))
	assert.Equal(t, "90m", FormatDelayShort(90))
}
