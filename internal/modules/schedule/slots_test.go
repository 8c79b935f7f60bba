package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorhub/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(d time.Time, hh, mm int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, time.UTC)
}

func TestGenerateSlots_BackToBack(t *testing.T) {
	d := day(2026, 3, 2)
	now := at(d, 0, 0)

	slots := GenerateSlots(d, at(d, 9, 0), at(d, 10, 0), 30*time.Minute, 0, nil, now)

	require.Len(t, slots, 2)
	assert.Equal(t, at(d, 9, 0), slots[0].StartTime)
	assert.Equal(t, at(d, 9, 30), slots[0].EndTime)
	assert.Equal(t, at(d, 9, 30), slots[1].StartTime)
	assert.Equal(t, at(d, 10, 0), slots[1].EndTime)
}

func TestGenerateSlots_BufferDropsTrailingSlot(t *testing.T) {
	d := day(2026, 3, 2)
	now := at(d, 0, 0)

	// 09:00+40=09:40 fits; next candidate 09:50+40=10:30 > 10:00, dropped.
	slots := GenerateSlots(d, at(d, 9, 0), at(d, 10, 0), 40*time.Minute, 10*time.Minute, nil, now)

	require.Len(t, slots, 1)
	assert.Equal(t, at(d, 9, 0), slots[0].StartTime)
	assert.Equal(t, at(d, 9, 40), slots[0].EndTime)
}

func TestGenerateSlots_EmptyWindow(t *testing.T) {
	d := day(2026, 3, 2)
	now := at(d, 0, 0)

	slots := GenerateSlots(d, at(d, 9, 0), at(d, 9, 0), 30*time.Minute, 0, nil, now)
	assert.Empty(t, slots)
}

func TestGenerateSlots_DurationLargerThanWindow(t *testing.T) {
	d := day(2026, 3, 2)
	now := at(d, 0, 0)

	slots := GenerateSlots(d, at(d, 9, 0), at(d, 10, 0), 90*time.Minute, 0, nil, now)
	assert.Empty(t, slots)
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	d := day(2026, 3, 2)
	now := at(d, 0, 0)

	a := GenerateSlots(d, at(d, 9, 0), at(d, 17, 0), 45*time.Minute, 15*time.Minute, nil, now)
	b := GenerateSlots(d, at(d, 9, 0), at(d, 17, 0), 45*time.Minute, 15*time.Minute, nil, now)

	assert.Equal(t, a, b)
}

func TestGenerateSlots_NoOverlapAndFit(t *testing.T) {
	d := day(2026, 3, 2)
	now := at(d, 0, 0)
	workEnd := at(d, 17, 0)
	duration := 50 * time.Minute

	slots := GenerateSlots(d, at(d, 9, 0), workEnd, duration, 5*time.Minute, nil, now)
	require.NotEmpty(t, slots)

	for i, s := range slots {
		assert.Equal(t, duration, s.EndTime.Sub(s.StartTime))
		assert.False(t, s.EndTime.After(workEnd))
		if i > 0 {
			assert.False(t, s.StartTime.Before(slots[i-1].EndTime),
				"slot %d overlaps its predecessor", i)
		}
	}
}

func TestGenerateSlots_PreservesBookedSlots(t *testing.T) {
	d := day(2026, 3, 2)
	now := at(d, 0, 0)

	booked := domain.TimeSlot{
		ID:        42,
		MentorID:  7,
		Date:      d,
		StartTime: at(d, 9, 30),
		EndTime:   at(d, 10, 0),
		IsBooked:  true,
	}

	slots := GenerateSlots(d, at(d, 9, 0), at(d, 10, 0), 30*time.Minute, 0, []domain.TimeSlot{booked}, now)

	require.Len(t, slots, 2)
	assert.Zero(t, slots[0].ID)
	assert.False(t, slots[0].IsBooked)

	// The booked slot object survives regeneration verbatim.
	assert.Equal(t, int64(42), slots[1].ID)
	assert.Equal(t, int64(7), slots[1].MentorID)
	assert.True(t, slots[1].IsBooked)
	assert.Equal(t, booked.StartTime, slots[1].StartTime)
	assert.Equal(t, booked.EndTime, slots[1].EndTime)
}

func TestGenerateSlots_NonBookedExistingDiscarded(t *testing.T) {
	d := day(2026, 3, 2)
	now := at(d, 0, 0)

	free := domain.TimeSlot{
		ID:        13,
		Date:      d,
		StartTime: at(d, 9, 0),
		EndTime:   at(d, 9, 30),
		IsBooked:  false,
	}

	slots := GenerateSlots(d, at(d, 9, 0), at(d, 10, 0), 30*time.Minute, 0, []domain.TimeSlot{free}, now)

	require.Len(t, slots, 2)
	// Recomputed fresh, old row id not carried over.
	assert.Zero(t, slots[0].ID)
}

func TestGenerateSlots_MarksPastSlots(t *testing.T) {
	d := day(2026, 3, 2)
	now := at(d, 9, 30)

	slots := GenerateSlots(d, at(d, 9, 0), at(d, 11, 0), 30*time.Minute, 0, nil, now)

	require.Len(t, slots, 4)
	assert.True(t, slots[0].IsPast)  // 09:00, already started
	assert.True(t, slots[1].IsPast)  // 09:30, starts exactly now
	assert.False(t, slots[2].IsPast) // 10:00
	assert.False(t, slots[3].IsPast) // 10:30
}

func TestCombineDayTime(t *testing.T) {
	d := day(2026, 3, 2)

	got, err := CombineDayTime(d, "09:30")
	require.NoError(t, err)
	assert.Equal(t, at(d, 9, 30), got)

	_, err = CombineDayTime(d, "9am")
	assert.Error(t, err)
}
