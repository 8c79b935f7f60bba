package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentorhub/internal/database"
	"mentorhub/internal/domain"
	"mentorhub/internal/middleware"
	"mentorhub/internal/modules/booking"
	"mentorhub/internal/modules/schedule"
	"mentorhub/internal/pkg/email"
	jwtsvc "mentorhub/internal/pkg/jwt"
	"mentorhub/internal/pkg/slotlock"
	"mentorhub/internal/repository"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service

	mentorID     int64
	mentorToken  string
	learnerID    int64
	learnerToken string
	learner2ID   int64
	learner2Tok  string
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Each suite gets its own shared-cache in-memory database so flows do not
// leak state into each other.
var dbSeq atomic.Int64

func setupTestSuite(t *testing.T) *E2ETestSuite {
	dsn := fmt.Sprintf("file:e2e_%d?mode=memory&cache=shared", dbSeq.Add(1))

	db, err := database.Connect(dsn)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db), "Failed to migrate test database")

	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	zlog := zap.NewNop()

	scheduleService := schedule.NewService(scheduleRepo, userRepo, zlog)
	scheduleHandler := schedule.NewHandler(scheduleService)

	bookingService := booking.NewService(bookingRepo, slotRepo, userRepo, slotlock.NewLocalLocker(), email.NopSender{}, zlog)
	bookingHandler := booking.NewHandler(bookingService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(middleware.Auth(jwtService))
	{
		scheduleHandler.RegisterRoutes(protected, middleware.MentorOnly())
		bookingHandler.RegisterRoutes(protected, middleware.MentorOnly())
	}

	suite := &E2ETestSuite{
		router:     r,
		db:         db,
		jwtService: jwtService,
	}

	suite.mentorID, suite.mentorToken = suite.createUser(t, "mentor@test.com", domain.RoleMentor)
	suite.learnerID, suite.learnerToken = suite.createUser(t, "learner@test.com", domain.RoleLearner)
	suite.learner2ID, suite.learner2Tok = suite.createUser(t, "learner2@test.com", domain.RoleLearner)

	return suite
}

func (s *E2ETestSuite) createUser(t *testing.T, mail string, role domain.UserRole) (int64, string) {
	u := &domain.User{
		Email:        mail,
		PasswordHash: "$2a$10$dummy",
		Name:         "Test " + string(role),
		Role:         role,
		Status:       domain.UserActive,
	}
	require.NoError(t, s.db.Create(u).Error, "Failed to create test user")

	token, err := s.jwtService.GenerateToken(u.ID, string(role))
	require.NoError(t, err, "Failed to mint token")
	return u.ID, token
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyBytes []byte
	var err error

	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w, nil
}

func parseResponse(w *httptest.ResponseRecorder) (*TestResponse, error) {
	var resp TestResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	if err != nil {
		log.Printf("Failed to parse response. Status: %d, Body: %s", w.Code, w.Body.String())
	}
	return &resp, err
}

// weekWindow returns a five-day window one week out, far enough that every
// generated slot is in the future.
func weekWindow() (string, string) {
	start := time.Now().UTC().AddDate(0, 0, 7)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

func scheduleBody(weekStart, weekEnd string) map[string]interface{} {
	return map[string]interface{}{
		"week_start":       weekStart,
		"week_end":         weekEnd,
		"start_time":       "09:00",
		"end_time":         "12:00",
		"session_duration": 60,
		"buffer_time":      0,
	}
}

// saveSchedule posts a 5-day, 3-slots-per-day availability for the suite's
// mentor and returns the persisted slot ids in start-time order.
func (s *E2ETestSuite) saveSchedule(t *testing.T) []int64 {
	weekStart, weekEnd := weekWindow()

	w, err := s.makeRequest("POST", fmt.Sprintf("/api/v1/schedule/%d", s.mentorID), scheduleBody(weekStart, weekEnd), s.mentorToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code, "schedule save failed: %s", w.Body.String())

	resp, err := parseResponse(w)
	require.NoError(t, err)
	require.True(t, resp.Success)

	raw, ok := resp.Data["slots"].([]interface{})
	require.True(t, ok, "slots missing from schedule response")

	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		slot := item.(map[string]interface{})
		ids = append(ids, int64(slot["id"].(float64)))
	}
	require.NotEmpty(t, ids)
	return ids
}

// =============================================================================
// Flow 1: Mentor availability
// =============================================================================

func TestFlow1_MentorAvailability(t *testing.T) {
	suite := setupTestSuite(t)
	weekStart, weekEnd := weekWindow()

	t.Run("POST /schedule/:mentorId", func(t *testing.T) {
		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/schedule/%d", suite.mentorID), scheduleBody(weekStart, weekEnd), suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code, "Expected 200 OK: %s", w.Body.String())

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		// 5 days x 3 slots (09:00-12:00, 60 min, no buffer)
		slots := resp.Data["slots"].([]interface{})
		assert.Len(t, slots, 15)

		log.Printf("POST /schedule/:mentorId - SUCCESS")
	})

	t.Run("GET /schedule/:mentorId", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/schedule/%d?weekStart=%s&weekEnd=%s", suite.mentorID, weekStart, weekEnd)
		w, err := suite.makeRequest("GET", path, nil, suite.learnerToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		settings := resp.Data["settings"].(map[string]interface{})
		assert.False(t, settings["is_locked"].(bool))
		assert.Equal(t, "09:00", settings["work_start_time"])

		log.Printf("GET /schedule/:mentorId - SUCCESS")
	})

	t.Run("GET /schedule unknown week returns 404", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/schedule/%d?weekStart=2030-01-07&weekEnd=2030-01-11", suite.mentorID)
		w, err := suite.makeRequest("GET", path, nil, suite.learnerToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("POST /schedule for another mentor is forbidden", func(t *testing.T) {
		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/schedule/%d", suite.mentorID+100), scheduleBody(weekStart, weekEnd), suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("POST /schedule as learner is forbidden", func(t *testing.T) {
		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/schedule/%d", suite.learnerID), scheduleBody(weekStart, weekEnd), suite.learnerToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("POST /schedule rejects bad session duration", func(t *testing.T) {
		body := scheduleBody(weekStart, weekEnd)
		body["session_duration"] = 10

		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/schedule/%d", suite.mentorID), body, suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// =============================================================================
// Flow 2: Booking lifecycle
// =============================================================================

func TestFlow2_BookingLifecycle(t *testing.T) {
	suite := setupTestSuite(t)
	weekStart, weekEnd := weekWindow()

	slotIDs := suite.saveSchedule(t)
	slotID := slotIDs[0]

	var bookingID, booking2ID int64

	t.Run("GET /booking/available-slots", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/booking/available-slots?mentorId=%d", suite.mentorID)
		w, err := suite.makeRequest("GET", path, nil, suite.learnerToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, float64(15), resp.Data["total_count"])

		log.Printf("GET /booking/available-slots - SUCCESS")
	})

	t.Run("GET /booking/available-mentors", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/booking/available-mentors", nil, suite.learnerToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code, "available-mentors failed: %s", w.Body.String())

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, float64(1), resp.Data["total_count"])

		items := resp.Data["items"].([]interface{})
		require.Len(t, items, 1)
		first := items[0].(map[string]interface{})
		assert.Equal(t, float64(suite.mentorID), first["mentor_id"])

		// The representative slot is the mentor's earliest bookable one.
		next := first["next_slot"].(map[string]interface{})
		assert.Equal(t, float64(slotIDs[0]), next["id"])

		log.Printf("GET /booking/available-mentors - SUCCESS")
	})

	t.Run("POST /booking", func(t *testing.T) {
		body := map[string]interface{}{
			"time_slot_id": slotID,
			"session_type": "code-review",
		}

		w, err := suite.makeRequest("POST", "/api/v1/booking", body, suite.learnerToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, w.Code, "booking failed: %s", w.Body.String())

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.True(t, resp.Success)

		b := resp.Data["booking"].(map[string]interface{})
		assert.Equal(t, string(domain.BookingPending), b["status"])
		bookingID = int64(b["id"].(float64))

		log.Printf("POST /booking - SUCCESS (booking_id: %d)", bookingID)
	})

	t.Run("POST /booking duplicate is rejected", func(t *testing.T) {
		body := map[string]interface{}{"time_slot_id": slotID}

		w, err := suite.makeRequest("POST", "/api/v1/booking", body, suite.learnerToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusConflict, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "DUPLICATE_REQUEST", resp.Error.Code)
	})

	t.Run("POST /booking second learner may also request", func(t *testing.T) {
		body := map[string]interface{}{"time_slot_id": slotID}

		w, err := suite.makeRequest("POST", "/api/v1/booking", body, suite.learner2Tok)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		b := resp.Data["booking"].(map[string]interface{})
		booking2ID = int64(b["id"].(float64))
	})

	t.Run("slot with only pending requests stays listed", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/booking/available-slots?mentorId=%d", suite.mentorID)
		w, err := suite.makeRequest("GET", path, nil, suite.learnerToken)
		require.NoError(t, err)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, float64(15), resp.Data["total_count"])
	})

	t.Run("POST /booking/:id/accept", func(t *testing.T) {
		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/booking/%d/accept", bookingID), nil, suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code, "accept failed: %s", w.Body.String())

		resp, err := parseResponse(w)
		require.NoError(t, err)
		b := resp.Data["booking"].(map[string]interface{})
		assert.Equal(t, string(domain.BookingApproved), b["status"])

		log.Printf("POST /booking/:id/accept - SUCCESS")
	})

	t.Run("accepting the competing request conflicts", func(t *testing.T) {
		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/booking/%d/accept", booking2ID), nil, suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusConflict, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "SLOT_UNAVAILABLE", resp.Error.Code)
	})

	t.Run("POST /booking/:id/accept as learner is forbidden", func(t *testing.T) {
		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/booking/%d/accept", booking2ID), nil, suite.learnerToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("confirmed slot leaves the availability list", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/booking/available-slots?mentorId=%d", suite.mentorID)
		w, err := suite.makeRequest("GET", path, nil, suite.learnerToken)
		require.NoError(t, err)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, float64(14), resp.Data["total_count"])
	})

	t.Run("schedule with a confirmed session is locked", func(t *testing.T) {
		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/schedule/%d", suite.mentorID), scheduleBody(weekStart, weekEnd), suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "SCHEDULE_LOCKED", resp.Error.Code)

		log.Printf("schedule lock enforced - SUCCESS")
	})

	t.Run("POST /booking/:id/cancel", func(t *testing.T) {
		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/booking/%d/cancel", booking2ID), nil, suite.learner2Tok)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)

		log.Printf("POST /booking/:id/cancel - SUCCESS")
	})

	t.Run("cancel of someone else's booking is forbidden", func(t *testing.T) {
		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/booking/%d/cancel", bookingID), nil, suite.learner2Tok)
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("GET /booking/my", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/booking/my", nil, suite.learnerToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, float64(1), resp.Data["total_count"])

		items := resp.Data["items"].([]interface{})
		first := items[0].(map[string]interface{})
		assert.Equal(t, string(domain.BookingApproved), first["status"])

		log.Printf("GET /booking/my - SUCCESS")
	})

	t.Run("GET /booking/slot/:slotId", func(t *testing.T) {
		w, err := suite.makeRequest("GET", fmt.Sprintf("/api/v1/booking/slot/%d", slotID), nil, suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		bookings := resp.Data["bookings"].([]interface{})
		assert.Len(t, bookings, 2)
	})
}

// =============================================================================
// Flow 3: Reschedule
// =============================================================================

func TestFlow3_Reschedule(t *testing.T) {
	suite := setupTestSuite(t)

	slotIDs := suite.saveSchedule(t)
	require.GreaterOrEqual(t, len(slotIDs), 2)
	oldSlot, newSlot := slotIDs[0], slotIDs[1]

	var bookingID int64

	t.Run("Setup: request and accept a booking", func(t *testing.T) {
		body := map[string]interface{}{"time_slot_id": oldSlot, "session_type": "career"}
		w, err := suite.makeRequest("POST", "/api/v1/booking", body, suite.learnerToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		bookingID = int64(resp.Data["booking"].(map[string]interface{})["id"].(float64))

		w, err = suite.makeRequest("POST", fmt.Sprintf("/api/v1/booking/%d/accept", bookingID), nil, suite.mentorToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, w.Code, "accept failed: %s", w.Body.String())
	})

	t.Run("reschedule with an oversized reason is rejected", func(t *testing.T) {
		long := make([]byte, 101)
		for i := range long {
			long[i] = 'x'
		}
		body := map[string]interface{}{"time_slot_id": newSlot, "reason": string(long)}

		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/booking/%d/reschedule", bookingID), body, suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	var replacementID int64

	t.Run("POST /booking/:id/reschedule", func(t *testing.T) {
		body := map[string]interface{}{"time_slot_id": newSlot, "reason": "mentor travel"}

		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/booking/%d/reschedule", bookingID), body, suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code, "reschedule failed: %s", w.Body.String())

		resp, err := parseResponse(w)
		require.NoError(t, err)
		b := resp.Data["booking"].(map[string]interface{})
		assert.Equal(t, string(domain.BookingApproved), b["status"])
		assert.Equal(t, float64(newSlot), b["time_slot_id"])
		replacementID = int64(b["id"].(float64))
		assert.NotEqual(t, bookingID, replacementID)

		log.Printf("POST /booking/:id/reschedule - SUCCESS")
	})

	t.Run("old booking carries the rescheduled status", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/booking/my?status=rescheduled", nil, suite.learnerToken)
		require.NoError(t, err)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, float64(1), resp.Data["total_count"])

		items := resp.Data["items"].([]interface{})
		first := items[0].(map[string]interface{})
		assert.Equal(t, float64(bookingID), first["id"])
		assert.Equal(t, "mentor travel", first["reschedule_reason"])
	})

	t.Run("replacement is the learner's approved session", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/booking/my?status=approved", nil, suite.learnerToken)
		require.NoError(t, err)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, float64(1), resp.Data["total_count"])

		items := resp.Data["items"].([]interface{})
		first := items[0].(map[string]interface{})
		assert.Equal(t, float64(replacementID), first["id"])
		assert.Equal(t, float64(newSlot), first["time_slot_id"])
	})

	t.Run("second reschedule of the old booking conflicts", func(t *testing.T) {
		body := map[string]interface{}{"time_slot_id": slotIDs[2], "reason": ""}

		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/booking/%d/reschedule", bookingID), body, suite.mentorToken)
		require.NoError(t, err)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

// =============================================================================
// Flow 4: Auth boundary
// =============================================================================

func TestFlow4_AuthBoundary(t *testing.T) {
	suite := setupTestSuite(t)

	t.Run("missing token", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/booking/my", nil, "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/booking/my", nil, "not.a.token")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
