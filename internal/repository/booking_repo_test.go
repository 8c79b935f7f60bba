package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	sqlite3 "modernc.org/sqlite/lib"
)

// constraintErr mimics the sqlite driver's error shape: an extended result
// code reachable through a Code() method.
type constraintErr struct {
	code int
}

func (e *constraintErr) Error() string { return fmt.Sprintf("constraint failed (%d)", e.code) }
func (e *constraintErr) Code() int     { return e.code }

func TestIsDuplicate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other error", &pgconn.PgError{Code: "40001"}, false},
		{"sqlite unique constraint", &constraintErr{code: sqlite3.SQLITE_CONSTRAINT_UNIQUE}, true},
		{"sqlite primary key constraint", &constraintErr{code: sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY}, true},
		{"sqlite busy", &constraintErr{code: sqlite3.SQLITE_BUSY}, false},
		{"wrapped sqlite unique", fmt.Errorf("create booking: %w", &constraintErr{code: sqlite3.SQLITE_CONSTRAINT_UNIQUE}), true},
		{"not found", gorm.ErrRecordNotFound, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isDuplicate(tc.err))
		})
	}
}
