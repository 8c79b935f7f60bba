package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mentorhub/internal/domain"
	"mentorhub/internal/pkg/email"
	"mentorhub/internal/pkg/slotlock"
	"mentorhub/internal/repository"
)

const maxRescheduleReasonLen = 100

type Service struct {
	bookings BookingRepository
	slots    SlotRepository
	users    UserDirectory
	locker   slotlock.Locker
	mail     email.Sender
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(
	bookings BookingRepository,
	slots SlotRepository,
	users UserDirectory,
	locker slotlock.Locker,
	mail email.Sender,
	logger *zap.Logger,
) *Service {
	return &Service{
		bookings: bookings,
		slots:    slots,
		users:    users,
		locker:   locker,
		mail:     mail,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestBooking creates a pending request on a slot. A slot with only
// pending requests stays listed as available; the mentor picks one to
// accept. A second pending request by the same learner on the same slot is
// rejected as a duplicate.
func (s *Service) RequestBooking(ctx context.Context, learnerID int64, req CreateBookingRequest) (*domain.Booking, error) {
	learner, err := s.users.GetByID(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if learner == nil {
		return nil, ErrNotFound
	}
	if !learner.IsActive() {
		return nil, ErrForbidden
	}

	slot, err := s.slots.GetByID(ctx, req.TimeSlotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrNotFound
	}
	if !slot.StartTime.After(s.now()) {
		return nil, ErrValidation
	}

	mentor, err := s.users.GetByID(ctx, slot.MentorID)
	if err != nil {
		return nil, err
	}
	if mentor == nil || !mentor.IsActive() {
		return nil, ErrSlotUnavailable
	}

	confirmed, err := s.bookings.GetConfirmedForSlot(ctx, slot.ID)
	if err != nil {
		return nil, err
	}
	if confirmed != nil {
		return nil, ErrSlotUnavailable
	}

	dup, err := s.bookings.ExistsPending(ctx, slot.ID, learnerID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateRequest
	}

	b := &domain.Booking{
		TimeSlotID:  slot.ID,
		LearnerID:   learnerID,
		Status:      domain.BookingPending,
		SessionType: req.SessionType,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}

	s.logger.Info("booking requested",
		zap.Int64("booking_id", b.ID),
		zap.Int64("learner_id", learnerID),
		zap.Int64("slot_id", slot.ID),
	)

	b.Slot = slot
	return b, nil
}

// AcceptBooking confirms a pending request. The check-then-act against
// competing bookings runs inside the per-slot lock and the status moves via
// compare-and-swap; the partial unique indexes (one confirmed per slot, one
// approved per learner) backstop races the lock cannot see, such as two
// accepts for the same learner on different slots. A losing concurrent
// accept gets ErrConflict, never a silent double booking.
//
// Notification policy: the status change is persisted first; a failed email
// is logged and never rolls back or fails the accept.
func (s *Service) AcceptBooking(ctx context.Context, bookingID, mentorID int64) (*domain.Booking, error) {
	b, slot, err := s.loadForMentor(ctx, bookingID, mentorID)
	if err != nil {
		return nil, err
	}

	mentor, err := s.users.GetByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if mentor == nil {
		return nil, ErrNotFound
	}
	if !mentor.IsActive() {
		return nil, ErrSlotUnavailable
	}

	if b.Status != domain.BookingPending {
		return nil, ErrInvalidTransition
	}

	err = s.locker.WithSlotLock(ctx, slot.ID, func(lockCtx context.Context) error {
		confirmed, err := s.bookings.GetConfirmedForSlot(lockCtx, slot.ID)
		if err != nil {
			return err
		}
		if confirmed != nil {
			return ErrSlotUnavailable
		}

		busy, err := s.bookings.LearnerHasApproved(lockCtx, b.LearnerID)
		if err != nil {
			return err
		}
		if busy {
			return ErrLearnerBusy
		}

		now := s.now()
		return s.bookings.UpdateStatusIf(lockCtx, b.ID, domain.BookingPending, domain.BookingApproved, &now)
	})
	if err != nil {
		switch {
		case errors.Is(err, slotlock.ErrLockNotAcquired),
			errors.Is(err, repository.ErrDuplicateBooking),
			errors.Is(err, repository.ErrStaleStatus):
			return nil, ErrConflict
		default:
			return nil, err
		}
	}

	s.logger.Info("booking approved",
		zap.Int64("booking_id", b.ID),
		zap.Int64("mentor_id", mentorID),
		zap.Int64("slot_id", slot.ID),
	)

	s.notify(ctx, b.LearnerID, "Session confirmed",
		fmt.Sprintf("Your session on %s was confirmed by %s.",
			slot.StartTime.Format("02 Jan 2006 15:04"), mentor.Name))

	updated, err := s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	updated.Slot = slot
	return updated, nil
}

// RejectBooking declines a pending request.
func (s *Service) RejectBooking(ctx context.Context, bookingID, mentorID int64) error {
	b, _, err := s.loadForMentor(ctx, bookingID, mentorID)
	if err != nil {
		return err
	}
	if b.Status != domain.BookingPending {
		return ErrInvalidTransition
	}

	now := s.now()
	err = s.bookings.UpdateStatusIf(ctx, b.ID, domain.BookingPending, domain.BookingRejected, &now)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// CancelBooking lets a learner withdraw their own pending request. Approved
// sessions go through reschedule or the mentor flow instead.
func (s *Service) CancelBooking(ctx context.Context, bookingID, actorID int64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrNotFound
	}
	if b.LearnerID != actorID {
		return ErrForbidden
	}
	if b.Status != domain.BookingPending {
		return ErrInvalidTransition
	}

	err = s.bookings.UpdateStatusIf(ctx, b.ID, domain.BookingPending, domain.BookingCancelled, nil)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// CompleteBooking marks an approved session completed once its start time
// has passed.
func (s *Service) CompleteBooking(ctx context.Context, bookingID, mentorID int64) error {
	b, slot, err := s.loadForMentor(ctx, bookingID, mentorID)
	if err != nil {
		return err
	}
	if b.Status != domain.BookingApproved {
		return ErrInvalidTransition
	}
	if slot.StartTime.After(s.now()) {
		return ErrValidation
	}

	err = s.bookings.UpdateStatusIf(ctx, b.ID, domain.BookingApproved, domain.BookingCompleted, nil)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Reschedule atomically moves an approved booking to a free future slot.
// The old record becomes rescheduled and the replacement starts approved,
// carrying over the already-granted confirmation. Counterparty notification
// is best-effort.
func (s *Service) Reschedule(ctx context.Context, bookingID, actorID int64, req RescheduleRequest) (*domain.Booking, error) {
	if len(req.Reason) > maxRescheduleReasonLen {
		return nil, ErrValidation
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}

	oldSlot, err := s.slots.GetByID(ctx, b.TimeSlotID)
	if err != nil {
		return nil, err
	}
	if oldSlot == nil {
		return nil, ErrNotFound
	}

	actorIsMentor := oldSlot.MentorID == actorID
	if !actorIsMentor && b.LearnerID != actorID {
		return nil, ErrForbidden
	}
	if b.Status != domain.BookingApproved {
		return nil, ErrInvalidTransition
	}

	newSlot, err := s.slots.GetByID(ctx, req.TimeSlotID)
	if err != nil {
		return nil, err
	}
	if newSlot == nil {
		return nil, ErrNotFound
	}
	if !newSlot.StartTime.After(s.now()) {
		return nil, ErrValidation
	}

	now := s.now()
	replacement := &domain.Booking{
		TimeSlotID:  newSlot.ID,
		LearnerID:   b.LearnerID,
		Status:      domain.BookingApproved,
		SessionType: b.SessionType,
		ReviewedAt:  &now,
	}

	err = s.locker.WithSlotLock(ctx, newSlot.ID, func(lockCtx context.Context) error {
		confirmed, err := s.bookings.GetConfirmedForSlot(lockCtx, newSlot.ID)
		if err != nil {
			return err
		}
		if confirmed != nil {
			return ErrSlotUnavailable
		}
		return s.bookings.Reschedule(lockCtx, b.ID, req.Reason, replacement)
	})
	if err != nil {
		switch {
		case errors.Is(err, slotlock.ErrLockNotAcquired),
			errors.Is(err, repository.ErrDuplicateBooking):
			return nil, ErrConflict
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, ErrInvalidTransition
		default:
			return nil, err
		}
	}

	s.logger.Info("booking rescheduled",
		zap.Int64("old_booking_id", b.ID),
		zap.Int64("new_booking_id", replacement.ID),
		zap.Int64("new_slot_id", newSlot.ID),
	)

	counterparty := b.LearnerID
	if !actorIsMentor {
		counterparty = oldSlot.MentorID
	}
	s.notify(ctx, counterparty, "Session rescheduled",
		fmt.Sprintf("The session was moved to %s. Reason: %s",
			newSlot.StartTime.Format("02 Jan 2006 15:04"), req.Reason))

	replacement.Slot = newSlot
	return replacement, nil
}

// ReconcileOverdue sweeps bookings whose slot time has passed without a
// terminal status: pending requests cancel, approved sessions complete.
// Invoked at the top of list reads; failures are logged, reads proceed on
// the unswept data.
func (s *Service) ReconcileOverdue(ctx context.Context) {
	if err := s.bookings.SweepOverdue(ctx, s.now()); err != nil {
		s.logger.Warn("overdue booking sweep failed", zap.Error(err))
	}
}

// ListAvailableSlots pages through bookable future slots, optionally
// narrowed to a mentor or a single date.
func (s *Service) ListAvailableSlots(ctx context.Context, mentorID int64, date *time.Time, page Page) ([]domain.TimeSlot, int64, Page, error) {
	s.ReconcileOverdue(ctx)

	page = page.clamp()
	limit, offset := page.limitOffset()
	f := repository.AvailableSlotFilter{
		MentorID: mentorID,
		Date:     date,
		From:     s.now(),
	}
	items, total, err := s.slots.ListAvailable(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, page, err
	}
	return items, total, page, nil
}

// ListAvailableMentors returns one representative future slot per mentor
// for the discovery view.
func (s *Service) ListAvailableMentors(ctx context.Context, page Page) ([]repository.MentorAvailability, int64, Page, error) {
	s.ReconcileOverdue(ctx)

	page = page.clamp()
	limit, offset := page.limitOffset()
	items, total, err := s.slots.ListAvailableMentors(ctx, s.now(), limit, offset)
	if err != nil {
		return nil, 0, page, err
	}
	return items, total, page, nil
}

// ListMyBookings pages through a learner's bookings, newest-submitted last.
func (s *Service) ListMyBookings(ctx context.Context, learnerID int64, status domain.BookingStatus, page Page) ([]domain.Booking, int64, Page, error) {
	s.ReconcileOverdue(ctx)

	page = page.clamp()
	limit, offset := page.limitOffset()
	items, total, err := s.bookings.ListByLearner(ctx, learnerID, status, limit, offset)
	if err != nil {
		return nil, 0, page, err
	}
	return items, total, page, nil
}

// ListBookingsBySlot returns the full request history of one slot for its
// owning mentor.
func (s *Service) ListBookingsBySlot(ctx context.Context, slotID, mentorID int64) ([]domain.Booking, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrNotFound
	}
	if slot.MentorID != mentorID {
		return nil, ErrForbidden
	}
	return s.bookings.ListBySlot(ctx, slotID)
}

// loadForMentor fetches the booking and its slot, checking the acting
// mentor owns the slot.
func (s *Service) loadForMentor(ctx context.Context, bookingID, mentorID int64) (*domain.Booking, *domain.TimeSlot, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, ErrNotFound
	}

	slot, err := s.slots.GetByID(ctx, b.TimeSlotID)
	if err != nil {
		return nil, nil, err
	}
	if slot == nil {
		return nil, nil, ErrNotFound
	}
	if slot.MentorID != mentorID {
		return nil, nil, ErrForbidden
	}
	return b, slot, nil
}

func (s *Service) notify(ctx context.Context, userID int64, subject, body string) {
	if s.mail == nil {
		return
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		s.logger.Warn("notification recipient lookup failed",
			zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := s.mail.Send(u.Email, subject, body); err != nil {
		s.logger.Warn("notification send failed",
			zap.Int64("user_id", userID),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
