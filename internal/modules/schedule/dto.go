package schedule

import (
	"time"

	"mentorhub/internal/domain"
)

// SaveScheduleRequest mirrors the weekly availability form: the work-hour
// window, session sizing, and the start times of the candidate slots the
// mentor left selected. An empty selection keeps every candidate.
type SaveScheduleRequest struct {
	WeekStart       string   `json:"week_start" binding:"required" validate:"required"` // 2006-01-02
	WeekEnd         string   `json:"week_end" binding:"required" validate:"required"`   // 2006-01-02
	StartTime       string   `json:"start_time" binding:"required" validate:"required"` // 15:04
	EndTime         string   `json:"end_time" binding:"required" validate:"required"`   // 15:04
	SessionDuration int      `json:"session_duration" binding:"required" validate:"gte=15"`
	BufferTime      int      `json:"buffer_time" validate:"gte=0"`
	SelectedSlots   []string `json:"available_time_slots"` // RFC3339 start times
}

type ScheduleResponse struct {
	Settings *domain.ScheduleSettings `json:"settings"`
	Slots    []domain.TimeSlot        `json:"slots"`
}

func parseDay(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}
