package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mentorhub/internal/domain"
)

// bookedStatuses are the booking statuses that pin a slot: the slot cannot
// be regenerated away and its schedule window is locked for editing.
var bookedStatuses = []domain.BookingStatus{
	domain.BookingApproved,
	domain.BookingCompleted,
	domain.BookingRescheduled,
}

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) GetSettings(ctx context.Context, mentorID int64, weekStart time.Time) (*domain.ScheduleSettings, error) {
	var s domain.ScheduleSettings
	err := r.db.WithContext(ctx).
		Where("mentor_id = ? AND week_start_date = ?", mentorID, weekStart).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// HasBookedSessions reports whether any slot of the mentor inside
// [from, to] carries a booking in approved/completed/rescheduled status.
// A true result locks the schedule window against edits.
func (r *ScheduleRepository) HasBookedSessions(ctx context.Context, mentorID int64, from, to time.Time) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Joins("JOIN time_slots ON time_slots.id = bookings.time_slot_id").
		Where("time_slots.mentor_id = ?", mentorID).
		Where("time_slots.date BETWEEN ? AND ?", from, to).
		Where("bookings.status IN ?", bookedStatuses).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// ListSlots returns the mentor's slots in [from, to] ordered by start time,
// with IsBooked filled from the booking table.
func (r *ScheduleRepository) ListSlots(ctx context.Context, mentorID int64, from, to time.Time) ([]domain.TimeSlot, error) {
	var slots []domain.TimeSlot
	err := r.db.WithContext(ctx).
		Where("mentor_id = ? AND date BETWEEN ? AND ?", mentorID, from, to).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return slots, nil
	}

	ids := make([]int64, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.ID)
	}

	var bookedIDs []int64
	err = r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("time_slot_id IN ? AND status IN ?", ids, bookedStatuses).
		Pluck("time_slot_id", &bookedIDs).Error
	if err != nil {
		return nil, err
	}

	booked := make(map[int64]bool, len(bookedIDs))
	for _, id := range bookedIDs {
		booked[id] = true
	}
	for i := range slots {
		slots[i].IsBooked = booked[slots[i].ID]
	}
	return slots, nil
}

// SaveWeek persists the settings and the regenerated slot set for one week
// in a single transaction. Slots carrying a booked-status booking survive
// untouched (the generator returns them verbatim, ID included); every other
// slot in the window is dropped and replaced by the rows with a zero ID.
// Pending requests on dropped slots are cancelled, not deleted.
func (r *ScheduleRepository) SaveWeek(ctx context.Context, s *domain.ScheduleSettings, slots []domain.TimeSlot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.ScheduleSettings
		err := tx.Where("mentor_id = ? AND week_start_date = ?", s.MentorID, s.WeekStartDate).
			First(&existing).Error
		switch {
		case err == nil:
			s.ID = existing.ID
			s.CreatedAt = existing.CreatedAt
			if err := tx.Save(s).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(s).Error; err != nil {
				return err
			}
		default:
			return err
		}

		// Collect the ids being replaced so their pending requests can be
		// cancelled before the rows go away.
		var staleIDs []int64
		err = tx.Model(&domain.TimeSlot{}).
			Where("mentor_id = ? AND date BETWEEN ? AND ?", s.MentorID, s.WeekStartDate, s.WeekEndDate).
			Where("id NOT IN (SELECT time_slot_id FROM bookings WHERE status IN ?)", bookedStatuses).
			Pluck("id", &staleIDs).Error
		if err != nil {
			return err
		}

		if len(staleIDs) > 0 {
			err = tx.Model(&domain.Booking{}).
				Where("time_slot_id IN ? AND status = ?", staleIDs, domain.BookingPending).
				Updates(map[string]any{"status": domain.BookingCancelled, "updated_at": time.Now().UTC()}).Error
			if err != nil {
				return err
			}
			if err := tx.Delete(&domain.TimeSlot{}, staleIDs).Error; err != nil {
				return err
			}
		}

		for i := range slots {
			if slots[i].ID != 0 {
				continue // preserved booked slot, already persisted
			}
			slots[i].ScheduleID = s.ID
			if err := tx.Create(&slots[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
