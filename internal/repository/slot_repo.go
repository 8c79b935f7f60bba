package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"mentorhub/internal/domain"
)

// confirmedStatuses remove a slot from the "available to book" listings.
// A pending request deliberately does not.
var confirmedStatuses = []domain.BookingStatus{
	domain.BookingApproved,
	domain.BookingCompleted,
}

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// AvailableSlotFilter narrows the available-slot listing.
type AvailableSlotFilter struct {
	MentorID int64      // 0 means any mentor
	Date     *time.Time // nil means any date
	From     time.Time  // slots starting at or before From are excluded
}

// MentorAvailability is one row of the mentor discovery view: the mentor
// plus their earliest future bookable slot.
type MentorAvailability struct {
	MentorID   int64           `json:"mentor_id"`
	MentorName string          `json:"mentor_name"`
	NextSlot   domain.TimeSlot `json:"next_slot"`
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	var s domain.TimeSlot
	err := r.db.WithContext(ctx).First(&s, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SlotRepository) available(ctx context.Context, f AvailableSlotFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&domain.TimeSlot{}).
		Where("id NOT IN (SELECT time_slot_id FROM bookings WHERE status IN ?)", confirmedStatuses).
		Where("start_time > ?", f.From)
	if f.MentorID != 0 {
		q = q.Where("mentor_id = ?", f.MentorID)
	}
	if f.Date != nil {
		q = q.Where("date = ?", *f.Date)
	}
	return q
}

// ListAvailable returns bookable slots ordered by start time, with the total
// count for pagination.
func (r *SlotRepository) ListAvailable(ctx context.Context, f AvailableSlotFilter, limit, offset int) ([]domain.TimeSlot, int64, error) {
	var total int64
	if err := r.available(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var slots []domain.TimeSlot
	err := r.available(ctx, f).
		Order("start_time ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&slots).Error
	if err != nil {
		return nil, 0, err
	}
	return slots, total, nil
}

// ListAvailableMentors returns one row per active mentor with bookable
// future slots, carrying the mentor's earliest such slot. The slot is looked
// up per mentor as a plain row; no time aggregate crosses the scan boundary,
// which both backends handle identically.
func (r *SlotRepository) ListAvailableMentors(ctx context.Context, now time.Time, limit, offset int) ([]MentorAvailability, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&domain.TimeSlot{}).
		Joins("JOIN users ON users.id = time_slots.mentor_id").
		Where("users.status = ?", domain.UserActive).
		Where("time_slots.id NOT IN (SELECT time_slot_id FROM bookings WHERE status IN ?)", confirmedStatuses).
		Where("time_slots.start_time > ?", now)

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("time_slots.mentor_id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	type row struct {
		MentorID   int64
		MentorName string
	}
	var rows []row
	err := base.Session(&gorm.Session{}).
		Select("time_slots.mentor_id AS mentor_id, users.name AS mentor_name").
		Group("time_slots.mentor_id, users.name").
		Order("mentor_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]MentorAvailability, 0, len(rows))
	for _, rw := range rows {
		var slot domain.TimeSlot
		err := r.db.WithContext(ctx).
			Where("mentor_id = ?", rw.MentorID).
			Where("id NOT IN (SELECT time_slot_id FROM bookings WHERE status IN ?)", confirmedStatuses).
			Where("start_time > ?", now).
			Order("start_time ASC, id ASC").
			First(&slot).Error
		if err != nil {
			return nil, 0, err
		}
		out = append(out, MentorAvailability{
			MentorID:   rw.MentorID,
			MentorName: rw.MentorName,
			NextSlot:   slot,
		})
	}
	return out, total, nil
}
