package booking

import (
	"strconv"
	"strings"
	"time"

	"github.com/atendezap/atende-ai-platform/internal/business"
)

// slotStepMinutes is the fixed walking step between candidate slots; the
// tenant's buffer is added on top of it.
const slotStepMinutes = 30

// overlaps is the half-open interval intersection test. Back-to-back slots
// share an endpoint and do not conflict; full containment does.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HasConflict reports whether the candidate interval overlaps any of the
// provided appointments. Callers must pre-filter to scheduled/confirmed rows
// and live holds; this predicate trusts its input.
func HasConflict(candidateStart time.Time, durationMinutes int, existing []Appointment) bool {
	candidateEnd := candidateStart.Add(time.Duration(durationMinutes) * time.Minute)
	for i := range existing {
		if overlaps(candidateStart, candidateEnd, existing[i].StartsAt, existing[i].EndsAt()) {
			return true
		}
	}
	return false
}

// FreeSlots walks the availability window for the given civil date in the
// tenant's zone and returns the start times (in that zone) where the
// requested duration fits without conflicts. An off-day yields no slots.
func FreeSlots(date time.Time, durationMinutes int, window business.AvailabilityWindow, loc *time.Location, existing []Appointment) []time.Time {
	if !window.DayAvailable(date.Weekday()) {
		return nil
	}

	startHour, startMin, ok := parseClock(window.StartTime)
	if !ok {
		return nil
	}
	endHour, endMin, ok := parseClock(window.EndTime)
	if !ok {
		return nil
	}

	year, month, day := date.Date()
	current := time.Date(year, month, day, startHour, startMin, 0, 0, loc)
	windowEnd := time.Date(year, month, day, endHour, endMin, 0, 0, loc)

	step := time.Duration(slotStepMinutes+window.BufferMinutes) * time.Minute
	duration := time.Duration(durationMinutes) * time.Minute

	var slots []time.Time
	for current.Before(windowEnd) {
		slotEnd := current.Add(duration)
		if !slotEnd.After(windowEnd) && !HasConflict(current, durationMinutes, existing) {
			slots = append(slots, current)
		}
		current = current.Add(step)
	}
	return slots
}

// WithinWindow reports whether a candidate interval starts on an available
// day and fits inside the opening hours. `start` must already be in the
// tenant's zone.
func WithinWindow(start time.Time, durationMinutes int, window business.AvailabilityWindow) bool {
	if !window.DayAvailable(start.Weekday()) {
		return false
	}
	startHour, startMin, ok := parseClock(window.StartTime)
	if !ok {
		return false
	}
	endHour, endMin, ok := parseClock(window.EndTime)
	if !ok {
		return false
	}

	year, month, day := start.Date()
	open := time.Date(year, month, day, startHour, startMin, 0, 0, start.Location())
	closing := time.Date(year, month, day, endHour, endMin, 0, 0, start.Location())
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return !start.Before(open) && !end.After(closing)
}

// parseClock parses "HH:MM" (seconds tolerated and ignored).
func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
