package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"

	"mentorhub/internal/config"
	"mentorhub/internal/database"
	"mentorhub/internal/domain"
	"mentorhub/internal/modules/schedule"
	"mentorhub/internal/repository"
)

const (
	mentorCount  = 5
	learnerCount = 20
)

func main() {
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM time_slots")
	db.Exec("DELETE FROM schedule_settings")
	db.Exec("DELETE FROM users")

	gofakeit.Seed(time.Now().UnixNano())
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	log.Println("Creating mentors...")
	mentors := make([]*domain.User, 0, mentorCount)
	for i := 0; i < mentorCount; i++ {
		u := &domain.User{
			Email:        fmt.Sprintf("mentor%d@mentorhub.local", i+1),
			PasswordHash: string(hash),
			Name:         gofakeit.Name(),
			Role:         domain.RoleMentor,
			Status:       domain.UserActive,
			Bio:          gofakeit.JobTitle(),
		}
		if err := userRepo.Create(ctx, u); err != nil {
			log.Fatal("create mentor:", err)
		}
		mentors = append(mentors, u)
	}

	log.Println("Creating learners...")
	learners := make([]*domain.User, 0, learnerCount)
	for i := 0; i < learnerCount; i++ {
		u := &domain.User{
			Email:        fmt.Sprintf("learner%d@mentorhub.local", i+1),
			PasswordHash: string(hash),
			Name:         gofakeit.Name(),
			Role:         domain.RoleLearner,
			Status:       domain.UserActive,
		}
		if err := userRepo.Create(ctx, u); err != nil {
			log.Fatal("create learner:", err)
		}
		learners = append(learners, u)
	}

	log.Println("Creating schedules and slots...")
	now := time.Now().UTC()
	weekStart := now.AddDate(0, 0, 1).Truncate(24 * time.Hour)
	weekEnd := weekStart.AddDate(0, 0, 4)

	slotIDs := make([]int64, 0)
	for _, m := range mentors {
		settings := &domain.ScheduleSettings{
			MentorID:               m.ID,
			WeekStartDate:          weekStart,
			WeekEndDate:            weekEnd,
			WorkStartTime:          "09:00",
			WorkEndTime:            "17:00",
			SessionDurationMinutes: 60,
			BufferMinutes:          15,
		}

		var slots []domain.TimeSlot
		for day := weekStart; !day.After(weekEnd); day = day.AddDate(0, 0, 1) {
			workStart, _ := schedule.CombineDayTime(day, settings.WorkStartTime)
			workEnd, _ := schedule.CombineDayTime(day, settings.WorkEndTime)
			generated := schedule.GenerateSlots(day, workStart, workEnd,
				time.Duration(settings.SessionDurationMinutes)*time.Minute,
				time.Duration(settings.BufferMinutes)*time.Minute,
				nil, now)
			for _, s := range generated {
				s.MentorID = m.ID
				slots = append(slots, s)
			}
		}

		if err := scheduleRepo.SaveWeek(ctx, settings, slots); err != nil {
			log.Fatal("save schedule:", err)
		}

		persisted, err := scheduleRepo.ListSlots(ctx, m.ID, weekStart, weekEnd)
		if err != nil {
			log.Fatal("list slots:", err)
		}
		for _, s := range persisted {
			slotIDs = append(slotIDs, s.ID)
		}
	}

	log.Println("Creating sample bookings...")
	for i, learner := range learners {
		if i >= len(slotIDs) {
			break
		}
		b := &domain.Booking{
			TimeSlotID:  slotIDs[i],
			LearnerID:   learner.ID,
			Status:      domain.BookingPending,
			SessionType: gofakeit.RandomString([]string{"intro", "code-review", "career", "mock-interview"}),
		}
		if err := bookingRepo.Create(ctx, b); err != nil {
			log.Fatal("create booking:", err)
		}
	}

	log.Printf("seed complete: %d mentors, %d learners, %d slots", len(mentors), len(learners), len(slotIDs))
}
