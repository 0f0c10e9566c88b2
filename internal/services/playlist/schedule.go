package playlist

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"castlane.dev/signcast/backend/internal/models"
)

// EvaluateSchedule determines the activation state of a schedule at the
// given instant. Weekday and time-of-day checks run in the schedule's
// timezone; date bounds are absolute instants with both ends inclusive.
// An unparseable timezone falls back to UTC.
func EvaluateSchedule(s *models.Schedule, now time.Time) models.ScheduleStatus {
	status := models.ScheduleStatus{EvaluatedAt: now}

	if s == nil {
		status.State = models.ScheduleNoSchedule
		status.Message = "No schedule configured; playlist is always eligible"
		return status
	}

	// A schedule object with no constraints behaves like no schedule at all.
	if s.StartDate == nil && s.EndDate == nil && len(s.TimeSlots) == 0 && len(s.DaysOfWeek) == 0 {
		status.State = models.ScheduleNoSchedule
		status.Message = "Schedule has no constraints; playlist is always eligible"
		return status
	}

	if s.StartDate != nil && now.Before(*s.StartDate) {
		status.State = models.SchedulePending
		status.Message = fmt.Sprintf("Scheduled to start %s", s.StartDate.Format(time.RFC3339))
		return status
	}

	if s.EndDate != nil && now.After(*s.EndDate) {
		status.State = models.ScheduleExpired
		status.Message = fmt.Sprintf("Schedule ended %s", s.EndDate.Format(time.RFC3339))
		return status
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	if len(s.DaysOfWeek) > 0 && !slices.Contains(s.DaysOfWeek, int(local.Weekday())) {
		status.State = models.ScheduleInactive
		status.Message = fmt.Sprintf("Not scheduled for %s", local.Weekday())
		return status
	}

	if len(s.TimeSlots) > 0 {
		minute := local.Hour()*60 + local.Minute()
		inWindow := false
		for _, slot := range s.TimeSlots {
			start, startErr := parseClock(slot.StartTime)
			end, endErr := parseClock(slot.EndTime)
			if startErr != nil || endErr != nil {
				continue
			}
			if minute >= start && minute <= end {
				inWindow = true
				break
			}
		}
		if !inWindow {
			status.State = models.ScheduleInactive
			status.Message = fmt.Sprintf("Outside scheduled time slots (local time %02d:%02d)",
				local.Hour(), local.Minute())
			return status
		}
	}

	status.State = models.ScheduleActive
	status.Message = "Schedule is currently active"
	return status
}

// ValidateSchedule checks the structural consistency of a schedule beyond
// field-level validation: date ordering, slot ordering and a resolvable
// timezone.
func ValidateSchedule(s *models.Schedule) error {
	if s == nil {
		return nil
	}

	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		return models.NewPlaylistError(models.ErrInvalidSchedule,
			"schedule end date is before its start date", http.StatusBadRequest).
			AddDetail("startDate", s.StartDate).
			AddDetail("endDate", s.EndDate)
	}

	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return models.NewPlaylistError(models.ErrInvalidSchedule,
			fmt.Sprintf("unknown timezone %q", s.Timezone), http.StatusBadRequest)
	}

	for _, slot := range s.TimeSlots {
		start, err := parseClock(slot.StartTime)
		if err != nil {
			return models.NewPlaylistError(models.ErrInvalidSchedule,
				fmt.Sprintf("invalid slot start time %q", slot.StartTime), http.StatusBadRequest)
		}
		end, err := parseClock(slot.EndTime)
		if err != nil {
			return models.NewPlaylistError(models.ErrInvalidSchedule,
				fmt.Sprintf("invalid slot end time %q", slot.EndTime), http.StatusBadRequest)
		}
		if end <= start {
			return models.NewPlaylistError(models.ErrInvalidSchedule,
				fmt.Sprintf("slot end %s is not after start %s", slot.EndTime, slot.StartTime), http.StatusBadRequest)
		}
	}

	for _, day := range s.DaysOfWeek {
		if day < 0 || day > 6 {
			return models.NewPlaylistError(models.ErrInvalidSchedule,
				fmt.Sprintf("invalid day of week %d", day), http.StatusBadRequest)
		}
	}

	return nil
}

// parseClock converts an HH:MM string to minutes since midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
