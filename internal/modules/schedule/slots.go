package schedule

import (
	"time"

	"mentorhub/internal/domain"
)

// GenerateSlots materializes the candidate slots for one working day.
// Starting at workStart it emits [t, t+duration) while the slot still fits
// entirely inside the work window, advancing by duration+buffer. Candidates
// whose (start, end) matches an existing booked slot reuse that slot
// verbatim, so a regeneration never loses a booking reference. Slots whose
// start is at or before now are flagged IsPast but still returned for
// display.
//
// The function is pure: now is an explicit input and no I/O happens here.
func GenerateSlots(day, workStart, workEnd time.Time, duration, buffer time.Duration, existing []domain.TimeSlot, now time.Time) []domain.TimeSlot {
	slots := []domain.TimeSlot{}
	if !workStart.Before(workEnd) || duration <= 0 {
		return slots
	}

	booked := make(map[string]domain.TimeSlot, len(existing))
	for _, s := range existing {
		if s.IsBooked {
			booked[s.Key()] = s
		}
	}

	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	for t := workStart; !t.Add(duration).After(workEnd); t = t.Add(duration + buffer) {
		slot := domain.TimeSlot{
			Date:      date,
			StartTime: t,
			EndTime:   t.Add(duration),
		}
		if kept, ok := booked[slot.Key()]; ok {
			kept.IsPast = !kept.StartTime.After(now)
			slots = append(slots, kept)
			continue
		}
		slot.IsPast = !slot.StartTime.After(now)
		slots = append(slots, slot)
	}

	return slots
}

// CombineDayTime anchors a "15:04" work time onto a calendar day in UTC.
func CombineDayTime(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
