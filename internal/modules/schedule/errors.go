package schedule

import "errors"

var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("schedule not found")
	ErrScheduleLocked = errors.New("schedule has booked sessions and is locked")
	ErrForbidden      = errors.New("not allowed to edit this schedule")
)
