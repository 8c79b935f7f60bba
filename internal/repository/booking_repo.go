package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	sqlite3 "modernc.org/sqlite/lib"

	"mentorhub/internal/domain"
)

var (
	// ErrDuplicateBooking surfaces a violated partial unique index: either a
	// second pending request by the same learner on a slot, or a lost race
	// for slot confirmation.
	ErrDuplicateBooking = errors.New("duplicate booking")

	// ErrStaleStatus means a compare-and-swap status update matched no row:
	// the booking moved on under a concurrent request.
	ErrStaleStatus = errors.New("booking status changed concurrently")
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// isDuplicate recognizes unique constraint violations from both backends.
// gorm's error translation covers neither driver here (pgx runs outside
// database/sql translation, and the sqlite translator keys off a different
// driver's error type), so the raw driver errors are matched too.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	err := r.db.WithContext(ctx).Create(b).Error
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateBooking
		}
		return err
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// GetConfirmedForSlot returns the approved or completed booking occupying
// the slot, or nil when the slot is free.
func (r *BookingRepository) GetConfirmedForSlot(ctx context.Context, slotID int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).
		Where("time_slot_id = ? AND status IN ?", slotID, confirmedStatuses).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) ExistsPending(ctx context.Context, slotID, learnerID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("time_slot_id = ? AND learner_id = ? AND status = ?", slotID, learnerID, domain.BookingPending).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// LearnerHasApproved reports whether the learner already holds an approved
// booking anywhere (one active session per learner, globally).
func (r *BookingRepository) LearnerHasApproved(ctx context.Context, learnerID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("learner_id = ? AND status = ?", learnerID, domain.BookingApproved).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// UpdateStatusIf moves the booking from one status to another with a
// compare-and-swap. ErrStaleStatus when the booking is no longer in `from`;
// ErrDuplicateBooking when the move violates the confirmed-per-slot index.
func (r *BookingRepository) UpdateStatusIf(ctx context.Context, id int64, from, to domain.BookingStatus, reviewedAt *time.Time) error {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if reviewedAt != nil {
		updates["reviewed_at"] = *reviewedAt
	}

	tx := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if tx.Error != nil {
		if isDuplicate(tx.Error) {
			return ErrDuplicateBooking
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// Reschedule atomically retires the old booking and creates its replacement
// on the new slot. A crash can leave neither slot touched, never both.
func (r *BookingRepository) Reschedule(ctx context.Context, oldID int64, reason string, replacement *domain.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Booking{}).
			Where("id = ? AND status = ?", oldID, domain.BookingApproved).
			Updates(map[string]any{
				"status":            domain.BookingRescheduled,
				"reschedule_reason": reason,
				"updated_at":        time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}
		return tx.Create(replacement).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateBooking
		}
		return err
	}
	return nil
}

// SweepOverdue reconciles bookings whose slot start time has passed:
// pending requests are cancelled, approved sessions completed. Invoked
// opportunistically on list reads; idempotent.
func (r *BookingRepository) SweepOverdue(ctx context.Context, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("status = ?", domain.BookingPending).
		Where("time_slot_id IN (SELECT id FROM time_slots WHERE start_time < ?)", now).
		Updates(map[string]any{"status": domain.BookingCancelled, "updated_at": now}).Error
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("status = ?", domain.BookingApproved).
		Where("time_slot_id IN (SELECT id FROM time_slots WHERE start_time < ?)", now).
		Updates(map[string]any{"status": domain.BookingCompleted, "updated_at": now}).Error
}

func (r *BookingRepository) listByLearner(ctx context.Context, learnerID int64, status domain.BookingStatus) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("learner_id = ?", learnerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return q
}

// ListByLearner returns the learner's bookings ordered by submission time,
// each with its slot attached.
func (r *BookingRepository) ListByLearner(ctx context.Context, learnerID int64, status domain.BookingStatus, limit, offset int) ([]domain.Booking, int64, error) {
	var total int64
	if err := r.listByLearner(ctx, learnerID, status).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []domain.Booking
	err := r.listByLearner(ctx, learnerID, status).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachSlots(ctx, bookings); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *BookingRepository) ListBySlot(ctx context.Context, slotID int64) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := r.db.WithContext(ctx).
		Where("time_slot_id = ?", slotID).
		Order("created_at ASC, id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) attachSlots(ctx context.Context, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.TimeSlotID)
	}

	var slots []domain.TimeSlot
	if err := r.db.WithContext(ctx).Find(&slots, ids).Error; err != nil {
		return err
	}
	byID := make(map[int64]domain.TimeSlot, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
	}
	for i := range bookings {
		if s, ok := byID[bookings[i].TimeSlotID]; ok {
			slot := s
			bookings[i].Slot = &slot
		}
	}
	return nil
}
