package domain

import "time"

type UserRole string

const (
	RoleLearner UserRole = "learner"
	RoleMentor  UserRole = "mentor"
	RoleAdmin   UserRole = "admin"
)

type UserStatus string

const (
	UserActive      UserStatus = "active"
	UserDeactivated UserStatus = "deactivated"
)

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email" validate:"required,email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	Bio          string     `json:"bio,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == UserActive
}
