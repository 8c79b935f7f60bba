package booking

import (
	"context"
	"time"

	"mentorhub/internal/domain"
	"mentorhub/internal/repository"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetConfirmedForSlot(ctx context.Context, slotID int64) (*domain.Booking, error)
	ExistsPending(ctx context.Context, slotID, learnerID int64) (bool, error)
	LearnerHasApproved(ctx context.Context, learnerID int64) (bool, error)
	UpdateStatusIf(ctx context.Context, id int64, from, to domain.BookingStatus, reviewedAt *time.Time) error
	Reschedule(ctx context.Context, oldID int64, reason string, replacement *domain.Booking) error
	SweepOverdue(ctx context.Context, now time.Time) error
	ListByLearner(ctx context.Context, learnerID int64, status domain.BookingStatus, limit, offset int) ([]domain.Booking, int64, error)
	ListBySlot(ctx context.Context, slotID int64) ([]domain.Booking, error)
}

type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error)
	ListAvailable(ctx context.Context, f repository.AvailableSlotFilter, limit, offset int) ([]domain.TimeSlot, int64, error)
	ListAvailableMentors(ctx context.Context, now time.Time, limit, offset int) ([]repository.MentorAvailability, int64, error)
}

// UserDirectory is the identity collaborator; booking actions are gated on
// the mentor's account status.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
