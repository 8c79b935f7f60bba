package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mentorhub/internal/domain"
)

const (
	minSessionMinutes = 15
	maxWeekDays       = 7
)

type Service struct {
	schedules ScheduleRepository
	users     UserDirectory
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(schedules ScheduleRepository, users UserDirectory, logger *zap.Logger) *Service {
	return &Service{
		schedules: schedules,
		users:     users,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetSchedule returns the mentor's settings and slots for one week window.
func (s *Service) GetSchedule(ctx context.Context, mentorID int64, weekStartStr, weekEndStr string) (*ScheduleResponse, error) {
	weekStart, err := parseDay(weekStartStr)
	if err != nil {
		return nil, ErrValidation
	}
	weekEnd, err := parseDay(weekEndStr)
	if err != nil {
		return nil, ErrValidation
	}

	settings, err := s.schedules.GetSettings(ctx, mentorID, weekStart)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, ErrNotFound
	}

	locked, err := s.schedules.HasBookedSessions(ctx, mentorID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	settings.IsLocked = locked

	slots, err := s.schedules.ListSlots(ctx, mentorID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range slots {
		slots[i].IsPast = !slots[i].StartTime.After(now)
	}

	return &ScheduleResponse{Settings: settings, Slots: slots}, nil
}

// SaveWeeklyAvailability validates the settings, regenerates the week's
// candidate slots (preserving booked ones untouched) and persists settings
// plus the selected subset in one transaction. A window containing a booked
// session rejects the edit with ErrScheduleLocked.
func (s *Service) SaveWeeklyAvailability(ctx context.Context, mentorID int64, req SaveScheduleRequest) (*ScheduleResponse, error) {
	mentor, err := s.users.GetByID(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if mentor == nil || mentor.Role != domain.RoleMentor {
		return nil, ErrForbidden
	}
	if !mentor.IsActive() {
		return nil, ErrForbidden
	}

	weekStart, err := parseDay(req.WeekStart)
	if err != nil {
		return nil, ErrValidation
	}
	weekEnd, err := parseDay(req.WeekEnd)
	if err != nil {
		return nil, ErrValidation
	}
	if weekEnd.Before(weekStart) || weekEnd.Sub(weekStart) >= maxWeekDays*24*time.Hour {
		return nil, ErrValidation
	}
	if req.SessionDuration < minSessionMinutes || req.BufferTime < 0 {
		return nil, ErrValidation
	}

	dayStart, err := CombineDayTime(weekStart, req.StartTime)
	if err != nil {
		return nil, ErrValidation
	}
	dayEnd, err := CombineDayTime(weekStart, req.EndTime)
	if err != nil {
		return nil, ErrValidation
	}
	if !dayStart.Before(dayEnd) {
		return nil, ErrValidation
	}

	locked, err := s.schedules.HasBookedSessions(ctx, mentorID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrScheduleLocked
	}

	existing, err := s.schedules.ListSlots(ctx, mentorID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	selected := make(map[string]bool, len(req.SelectedSlots))
	for _, raw := range req.SelectedSlots {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, ErrValidation
		}
		selected[t.UTC().Format(time.RFC3339)] = true
	}

	settings := &domain.ScheduleSettings{
		MentorID:               mentorID,
		WeekStartDate:          weekStart,
		WeekEndDate:            weekEnd,
		WorkStartTime:          req.StartTime,
		WorkEndTime:            req.EndTime,
		SessionDurationMinutes: req.SessionDuration,
		BufferMinutes:          req.BufferTime,
	}

	duration := time.Duration(req.SessionDuration) * time.Minute
	buffer := time.Duration(req.BufferTime) * time.Minute
	now := s.now()

	var slots []domain.TimeSlot
	for day := weekStart; !day.After(weekEnd); day = day.AddDate(0, 0, 1) {
		workStart, _ := CombineDayTime(day, req.StartTime)
		workEnd, _ := CombineDayTime(day, req.EndTime)

		var dayExisting []domain.TimeSlot
		for _, e := range existing {
			if e.Date.Equal(day) {
				dayExisting = append(dayExisting, e)
			}
		}

		for _, slot := range GenerateSlots(day, workStart, workEnd, duration, buffer, dayExisting, now) {
			keep := slot.IsBooked ||
				len(selected) == 0 ||
				selected[slot.StartTime.UTC().Format(time.RFC3339)]
			if !keep {
				continue
			}
			if slot.ID == 0 {
				slot.MentorID = mentorID
			}
			slots = append(slots, slot)
		}
	}

	if err := s.schedules.SaveWeek(ctx, settings, slots); err != nil {
		return nil, err
	}

	s.logger.Info("weekly availability saved",
		zap.Int64("mentor_id", mentorID),
		zap.Time("week_start", weekStart),
		zap.Int("slots", len(slots)),
	)

	settings.IsLocked = false
	return &ScheduleResponse{Settings: settings, Slots: slots}, nil
}
