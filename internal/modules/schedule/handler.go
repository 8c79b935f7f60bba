package schedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mentorhub/internal/pkg/response"
	"mentorhub/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the schedule endpoints. The group is expected to be
// behind the auth middleware; the POST route additionally requires the
// mentor role (enforced by the caller via middleware.RequireRole).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mentorOnly gin.HandlerFunc) {
	rg.GET("/schedule/:mentorId", h.GetSchedule)
	rg.POST("/schedule/:mentorId", mentorOnly, h.SaveSchedule)
}

func (h *Handler) GetSchedule(c *gin.Context) {
	mentorID, err := strconv.ParseInt(c.Param("mentorId"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid mentor id")
		return
	}

	res, err := h.service.GetSchedule(c.Request.Context(), mentorID, c.Query("weekStart"), c.Query("weekEnd"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

func (h *Handler) SaveSchedule(c *gin.Context) {
	mentorID, err := strconv.ParseInt(c.Param("mentorId"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid mentor id")
		return
	}

	// Only the owning mentor may edit their availability.
	if c.GetInt64("user_id") != mentorID {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You can only edit your own schedule")
		return
	}

	var req SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid schedule parameters", errs)
		return
	}

	res, err := h.service.SaveWeeklyAvailability(c.Request.Context(), mentorID, req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid schedule parameters")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Schedule not found")
	case errors.Is(err, ErrScheduleLocked):
		response.Error(c, http.StatusForbidden, "SCHEDULE_LOCKED",
			"Schedule has booked sessions and cannot be edited, please contact admin")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not allowed to edit this schedule")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process schedule")
	}
}
