package schedule

import (
	"context"
	"time"

	"mentorhub/internal/domain"
)

// ScheduleRepository persists weekly settings and their materialized slots.
type ScheduleRepository interface {
	GetSettings(ctx context.Context, mentorID int64, weekStart time.Time) (*domain.ScheduleSettings, error)
	HasBookedSessions(ctx context.Context, mentorID int64, from, to time.Time) (bool, error)
	ListSlots(ctx context.Context, mentorID int64, from, to time.Time) ([]domain.TimeSlot, error)
	SaveWeek(ctx context.Context, s *domain.ScheduleSettings, slots []domain.TimeSlot) error
}

// UserDirectory is the identity collaborator: scheduling actions are gated
// on account status.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
