package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	_ "modernc.org/sqlite"

	"mentorhub/internal/domain"
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{TranslateError: true},
	)
}

// Migrate creates the schema plus the partial unique indexes that back the
// booking invariants. The partial index syntax is identical on Postgres and
// SQLite, so the raw statements run on both.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.ScheduleSettings{},
		&domain.TimeSlot{},
		&domain.Booking{},
	); err != nil {
		return err
	}

	stmts := []string{
		// at most one confirmed booking per slot (first accept wins)
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_confirmed_per_slot
		 ON bookings(time_slot_id) WHERE status IN ('approved', 'completed')`,
		// at most one pending request per learner per slot
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_pending_per_learner_slot
		 ON bookings(time_slot_id, learner_id) WHERE status = 'pending'`,
		// at most one approved session per learner, across all slots
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_approved_per_learner
		 ON bookings(learner_id) WHERE status = 'approved'`,
		// slots keyed by (mentor, date, start, end)
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_slot_window
		 ON time_slots(mentor_id, date, start_time, end_time)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_schedule_week
		 ON schedule_settings(mentor_id, week_start_date)`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}
