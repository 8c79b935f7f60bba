package domain

import "time"

// ScheduleSettings is a mentor's availability template for one calendar week.
// Work times are stored as "15:04" strings; slots are materialized from them
// by the generator when the settings are saved.
type ScheduleSettings struct {
	ID                     int64     `json:"id"`
	MentorID               int64     `json:"mentor_id" validate:"required"`
	WeekStartDate          time.Time `json:"week_start_date" validate:"required"`
	WeekEndDate            time.Time `json:"week_end_date" validate:"required"`
	WorkStartTime          string    `json:"work_start_time" validate:"required"`
	WorkEndTime            string    `json:"work_end_time" validate:"required"`
	SessionDurationMinutes int       `json:"session_duration_minutes" validate:"gte=15"`
	BufferMinutes          int       `json:"buffer_minutes" validate:"gte=0"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	// IsLocked is derived: true while any slot in the week carries a
	// confirmed booking. Locked settings reject mutation.
	IsLocked bool `json:"is_locked" gorm:"-"`
}

// TimeSlot is one bookable interval derived from schedule settings.
// A slot holds a mentor reference only; bookings point back at the slot.
type TimeSlot struct {
	ID         int64     `json:"id"`
	MentorID   int64     `json:"mentor_id"`
	ScheduleID int64     `json:"schedule_id"`
	Date       time.Time `json:"date"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Not persisted: filled by the generator / availability queries.
	IsBooked bool `json:"is_booked" gorm:"-"`
	IsPast   bool `json:"is_past" gorm:"-"`
}

// Key identifies a slot within a mentor's day regardless of database id.
func (s TimeSlot) Key() string {
	return s.StartTime.UTC().Format(time.RFC3339) + "/" + s.EndTime.UTC().Format(time.RFC3339)
}
