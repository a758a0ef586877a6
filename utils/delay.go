package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DelayUnit is a validated unit of relative delay
type DelayUnit string

const (
	UnitMinute DelayUnit = "minute"
	UnitHour   DelayUnit = "hour"
	UnitDay    DelayUnit = "day"
	UnitWeek   DelayUnit = "week"
)

// Delay is a tagged relative delay, validated at construction. Steps store
// only their own relative delay; cumulative absolute times are computed
// once by the enrollment consumer.
type Delay struct {
	Amount int
	Unit   DelayUnit
}

// NewDelay builds a validated delay; a non-positive amount or unknown unit
// falls back to one day.
func NewDelay(amount int, unit DelayUnit) Delay {
	if amount <= 0 {
		return Delay{Amount: 1, Unit: UnitDay}
	}
	switch unit {
	case UnitMinute, UnitHour, UnitDay, UnitWeek:
		return Delay{Amount: amount, Unit: unit}
	}
	return Delay{Amount: 1, Unit: UnitDay}
}

// Duration converts the delay to a time.Duration
func (d Delay) Duration() time.Duration {
	switch d.Unit {
	case UnitMinute:
		return time.Duration(d.Amount) * time.Minute
	case UnitHour:
		return time.Duration(d.Amount) * time.Hour
	case UnitDay:
		return time.Duration(d.Amount) * 24 * time.Hour
	case UnitWeek:
		return time.Duration(d.Amount) * 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// Minutes returns the delay in whole minutes
func (d Delay) Minutes() int {
	return int(d.Duration() / time.Minute)
}

var delayNumberRe = regexp.MustCompile(`\d+`)

// ParseDelay is the legacy free-text boundary parser. The first embedded
// integer and the first matched unit keyword govern the result; a bare
// number is minutes; absent or unparseable input defaults to one day.
func ParseDelay(spec string) Delay {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Delay{Amount: 1, Unit: UnitDay}
	}

	if n, err := strconv.Atoi(spec); err == nil {
		return NewDelay(n, UnitMinute)
	}

	match := delayNumberRe.FindString(spec)
	if match == "" {
		return Delay{Amount: 1, Unit: UnitDay}
	}
	amount, err := strconv.Atoi(match)
	if err != nil {
		return Delay{Amount: 1, Unit: UnitDay}
	}

	// The keyword appearing earliest in the text wins
	lower := strings.ToLower(spec)
	bestIdx := -1
	bestUnit := UnitDay
	for _, candidate := range []struct {
		keyword string
		unit    DelayUnit
	}{
		{"week", UnitWeek},
		{"day", UnitDay},
		{"hour", UnitHour},
		{"min", UnitMinute},
	} {
		if idx := strings.Index(lower, candidate.keyword); idx >= 0 && (bestIdx == -1 || idx < bestIdx) {
			bestIdx = idx
			bestUnit = candidate.unit
		}
	}
	if bestIdx == -1 {
		return Delay{Amount: 1, Unit: UnitDay}
	}
	return NewDelay(amount, bestUnit)
}

// CalculateSendTime converts a relative delay spec into an absolute time
// from the previous step's absolute time. Pure and deterministic.
func CalculateSendTime(previous time.Time, delaySpec string) time.Time {
	return previous.Add(ParseDelay(delaySpec).Duration())
}

// FormatDelay renders a minute count for display: "immediately" for zero,
// otherwise hours and minutes with correct plurals.
func FormatDelay(minutes int) string {
	if minutes <= 0 {
		return "immediately"
	}

	hours := minutes / 60
	mins := minutes % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if mins > 0 {
		parts = append(parts, plural(mins, "minute"))
	}
	return strings.Join(parts, " ")
}

// FormatDelayShort renders a compact delay ("2d", "3h", "45m", "now")
func FormatDelayShort(minutes int) string {
	switch {
	case minutes <= 0:
		return "now"
	case minutes%1440 == 0:
		return fmt.Sprintf("%dd", minutes/1440)
	case minutes%60 == 0:
		return fmt.Sprintf("%dh", minutes/60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
