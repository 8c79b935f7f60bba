package booking

type CreateBookingRequest struct {
	TimeSlotID  int64  `json:"time_slot_id" binding:"required" validate:"required,gt=0"`
	SessionType string `json:"session_type" validate:"max=50"`
}

type RescheduleRequest struct {
	TimeSlotID int64  `json:"time_slot_id" binding:"required" validate:"required,gt=0"`
	Reason     string `json:"reason" validate:"max=100"`
}

// Page is the pageIndex/pageSize pair every listing accepts. Values are
// clamped by the service: index ≥ 0, size defaulting to 20, capped at 100.
type Page struct {
	Index int
	Size  int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (p Page) clamp() Page {
	if p.Index < 0 {
		p.Index = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

func (p Page) limitOffset() (int, int) {
	p = p.clamp()
	return p.Size, p.Index * p.Size
}
