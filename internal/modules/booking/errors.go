package booking

import "errors"

var (
	ErrNotFound          = errors.New("booking not found")
	ErrValidation        = errors.New("validation error")
	ErrSlotUnavailable   = errors.New("slot is not available")
	ErrDuplicateRequest  = errors.New("you already booked this slot")
	ErrConflict          = errors.New("slot was taken by a concurrent request")
	ErrLearnerBusy       = errors.New("learner already has an approved session")
	ErrForbidden         = errors.New("not allowed to act on this booking")
	ErrInvalidTransition = errors.New("invalid booking status transition")
)
