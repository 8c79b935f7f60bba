package domain

import "time"

type BookingStatus string

const (
	BookingPending     BookingStatus = "pending"
	BookingApproved    BookingStatus = "approved"
	BookingRejected    BookingStatus = "rejected"
	BookingCancelled   BookingStatus = "cancelled"
	BookingCompleted   BookingStatus = "completed"
	BookingRescheduled BookingStatus = "rescheduled"
)

// Active reports whether the status still occupies its slot.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingApproved
}

// Confirmed reports whether the status counts against the
// one-confirmed-booking-per-slot invariant.
func (s BookingStatus) Confirmed() bool {
	return s == BookingApproved || s == BookingCompleted
}

// Booking is a learner's claim on a time slot. Rows are never deleted;
// terminal statuses (rejected, cancelled, completed, rescheduled) are kept
// for history.
type Booking struct {
	ID               int64         `json:"id"`
	TimeSlotID       int64         `json:"time_slot_id" validate:"required"`
	LearnerID        int64         `json:"learner_id" validate:"required"`
	Status           BookingStatus `json:"status"`
	SessionType      string        `json:"session_type,omitempty"`
	RescheduleReason string        `json:"reschedule_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	ReviewedAt       *time.Time    `json:"reviewed_at,omitempty"`

	Slot *TimeSlot `json:"slot,omitempty" gorm:"-"`
}
