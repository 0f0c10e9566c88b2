package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"castlane.dev/signcast/backend/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluateScheduleNil(t *testing.T) {
	now := time.Now()
	status := EvaluateSchedule(nil, now)
	assert.Equal(t, models.ScheduleNoSchedule, status.State)
	assert.Equal(t, now, status.EvaluatedAt)
}

func TestEvaluateScheduleWithoutConstraints(t *testing.T) {
	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

	status := EvaluateSchedule(&models.Schedule{Timezone: "UTC"}, now)
	assert.Equal(t, models.ScheduleNoSchedule, status.State)

	status = EvaluateSchedule(&models.Schedule{
		Timezone:   "UTC",
		TimeSlots:  []models.TimeSlot{},
		DaysOfWeek: []int{},
	}, now)
	assert.Equal(t, models.ScheduleNoSchedule, status.State)

	// A weekday restriction alone is a real constraint. 2024-06-12 is a
	// Wednesday.
	status = EvaluateSchedule(&models.Schedule{
		Timezone:   "UTC",
		DaysOfWeek: []int{0, 6},
	}, now)
	assert.Equal(t, models.ScheduleInactive, status.State)
}

func TestEvaluateSchedulePending(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Schedule{
		StartDate: timePtr(now.Add(time.Hour)),
		Timezone:  "UTC",
	}
	status := EvaluateSchedule(s, now)
	assert.Equal(t, models.SchedulePending, status.State)
}

func TestEvaluateScheduleExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Schedule{
		EndDate:  timePtr(now.Add(-time.Hour)),
		Timezone: "UTC",
	}
	status := EvaluateSchedule(s, now)
	assert.Equal(t, models.ScheduleExpired, status.State)
}

func TestEvaluateScheduleDateBoundsInclusive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Schedule{
		StartDate: timePtr(now),
		EndDate:   timePtr(now),
		Timezone:  "UTC",
	}
	status := EvaluateSchedule(s, now)
	assert.Equal(t, models.ScheduleActive, status.State)
}

func TestEvaluateScheduleDaysOfWeek(t *testing.T) {
	// 2026-03-01 is a Sunday.
	sunday := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &models.Schedule{
		DaysOfWeek: []int{1, 2, 3, 4, 5},
		Timezone:   "UTC",
	}

	status := EvaluateSchedule(s, sunday)
	assert.Equal(t, models.ScheduleInactive, status.State)

	monday := sunday.AddDate(0, 0, 1)
	status = EvaluateSchedule(s, monday)
	assert.Equal(t, models.ScheduleActive, status.State)
}

func TestEvaluateScheduleWeekdayUsesTimezone(t *testing.T) {
	// 23:00 UTC on Sunday is already Monday in Tokyo.
	sundayLate := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	s := &models.Schedule{
		DaysOfWeek: []int{1},
		Timezone:   "Asia/Tokyo",
	}
	status := EvaluateSchedule(s, sundayLate)
	assert.Equal(t, models.ScheduleActive, status.State)
}

func TestEvaluateScheduleTimeSlots(t *testing.T) {
	s := &models.Schedule{
		TimeSlots: []models.TimeSlot{
			{StartTime: "09:00", EndTime: "17:00"},
		},
		Timezone: "UTC",
	}

	cases := []struct {
		name string
		at   time.Time
		want models.ScheduleState
	}{
		{"before window", time.Date(2026, 3, 2, 8, 59, 0, 0, time.UTC), models.ScheduleInactive},
		{"window start inclusive", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), models.ScheduleActive},
		{"mid window", time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC), models.ScheduleActive},
		{"window end inclusive", time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC), models.ScheduleActive},
		{"after window", time.Date(2026, 3, 2, 17, 1, 0, 0, time.UTC), models.ScheduleInactive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := EvaluateSchedule(s, tc.at)
			assert.Equal(t, tc.want, status.State)
		})
	}
}

func TestEvaluateScheduleMultipleSlots(t *testing.T) {
	s := &models.Schedule{
		TimeSlots: []models.TimeSlot{
			{StartTime: "06:00", EndTime: "08:00"},
			{StartTime: "18:00", EndTime: "22:00"},
		},
		Timezone: "UTC",
	}

	status := EvaluateSchedule(s, time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC))
	assert.Equal(t, models.ScheduleActive, status.State)

	status = EvaluateSchedule(s, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, models.ScheduleInactive, status.State)
}

func TestEvaluateScheduleUnknownTimezoneFallsBackToUTC(t *testing.T) {
	s := &models.Schedule{
		TimeSlots: []models.TimeSlot{
			{StartTime: "09:00", EndTime: "17:00"},
		},
		Timezone: "Not/AZone",
	}
	status := EvaluateSchedule(s, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, models.ScheduleActive, status.State)
}

func TestValidateScheduleNil(t *testing.T) {
	assert.NoError(t, ValidateSchedule(nil))
}

func TestValidateScheduleAccepts(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s := &models.Schedule{
		StartDate:  timePtr(start),
		EndDate:    timePtr(start.AddDate(0, 1, 0)),
		TimeSlots:  []models.TimeSlot{{StartTime: "09:00", EndTime: "17:00"}},
		DaysOfWeek: []int{1, 2, 3, 4, 5},
		Timezone:   "Europe/Berlin",
	}
	assert.NoError(t, ValidateSchedule(s))
}

func TestValidateScheduleRejects(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := map[string]*models.Schedule{
		"end before start": {
			StartDate: timePtr(start),
			EndDate:   timePtr(start.Add(-time.Hour)),
			Timezone:  "UTC",
		},
		"unknown timezone": {
			Timezone: "Mars/Olympus",
		},
		"bad slot start": {
			TimeSlots: []models.TimeSlot{{StartTime: "9am", EndTime: "17:00"}},
			Timezone:  "UTC",
		},
		"bad slot end": {
			TimeSlots: []models.TimeSlot{{StartTime: "09:00", EndTime: "25:00"}},
			Timezone:  "UTC",
		},
		"slot end not after start": {
			TimeSlots: []models.TimeSlot{{StartTime: "17:00", EndTime: "17:00"}},
			Timezone:  "UTC",
		},
		"day out of range": {
			DaysOfWeek: []int{7},
			Timezone:   "UTC",
		},
	}

	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateSchedule(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidSchedule)
		})
	}
}
