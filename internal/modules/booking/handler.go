package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mentorhub/internal/domain"
	"mentorhub/internal/pkg/response"
	"mentorhub/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mentorOnly gin.HandlerFunc) {
	rg.GET("/booking/available-slots", h.ListAvailableSlots)
	rg.GET("/booking/available-mentors", h.ListAvailableMentors)
	rg.GET("/booking/my", h.ListMyBookings)
	rg.GET("/booking/slot/:slotId", mentorOnly, h.ListBySlot)
	rg.POST("/booking", h.CreateBooking)
	rg.POST("/booking/:id/accept", mentorOnly, h.AcceptBooking)
	rg.POST("/booking/:id/reject", mentorOnly, h.RejectBooking)
	rg.POST("/booking/:id/cancel", h.CancelBooking)
	rg.POST("/booking/:id/complete", mentorOnly, h.CompleteBooking)
	rg.POST("/booking/:id/reschedule", h.Reschedule)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request", errs)
		return
	}

	b, err := h.service.RequestBooking(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) AcceptBooking(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	b, err := h.service.AcceptBooking(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) RejectBooking(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.service.RejectBooking(c.Request.Context(), id, c.GetInt64("user_id")); err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": domain.BookingRejected})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), id, c.GetInt64("user_id")); err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": domain.BookingCancelled})
}

func (h *Handler) CompleteBooking(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.service.CompleteBooking(c.Request.Context(), id, c.GetInt64("user_id")); err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": domain.BookingCompleted})
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reschedule request", errs)
		return
	}

	b, err := h.service.Reschedule(c.Request.Context(), id, c.GetInt64("user_id"), req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListAvailableSlots(c *gin.Context) {
	page := h.page(c)

	var mentorID int64
	if raw := c.Query("mentorId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid mentor id")
			return
		}
		mentorID = id
	}

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date, expected YYYY-MM-DD")
			return
		}
		d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		date = &d
	}

	items, total, page, err := h.service.ListAvailableSlots(c.Request.Context(), mentorID, date, page)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, response.Paged{
		Items:      items,
		TotalCount: total,
		PageIndex:  page.Index,
		PageSize:   page.Size,
	})
}

func (h *Handler) ListAvailableMentors(c *gin.Context) {
	items, total, page, err := h.service.ListAvailableMentors(c.Request.Context(), h.page(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, response.Paged{
		Items:      items,
		TotalCount: total,
		PageIndex:  page.Index,
		PageSize:   page.Size,
	})
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	status := domain.BookingStatus(c.Query("status"))

	items, total, page, err := h.service.ListMyBookings(c.Request.Context(), c.GetInt64("user_id"), status, h.page(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, response.Paged{
		Items:      items,
		TotalCount: total,
		PageIndex:  page.Index,
		PageSize:   page.Size,
	})
}

func (h *Handler) ListBySlot(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("slotId"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot id")
		return
	}

	items, err := h.service.ListBookingsBySlot(c.Request.Context(), slotID, c.GetInt64("user_id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bookings": items})
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return 0, false
	}
	return id, true
}

func (h *Handler) page(c *gin.Context) Page {
	index, _ := strconv.Atoi(c.DefaultQuery("pageIndex", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return Page{Index: index, Size: size}
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking or slot not found")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request")
	case errors.Is(err, ErrDuplicateRequest):
		response.Error(c, http.StatusConflict, "DUPLICATE_REQUEST", "You already booked this slot")
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "SLOT_UNAVAILABLE", "Slot no longer available, please pick another")
	case errors.Is(err, ErrLearnerBusy):
		response.Error(c, http.StatusConflict, "LEARNER_BUSY", "Learner already has an active session")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS", "Booking is not in a state that allows this action")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process booking")
	}
}
