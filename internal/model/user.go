package model

import (
	"github.com/google/uuid"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents a portal account. Credentials live with the session provider.
type User struct {
	Base
	Name   string     `json:"name" db:"name"`
	Email  string     `json:"email" db:"email"`
	Phone  *string    `json:"phone,omitempty" db:"phone"`
	RoleID *uuid.UUID `json:"role_id,omitempty" db:"role_id"`
	Status string     `json:"status" db:"status"`
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Staff links a user to the office they work for.
type Staff struct {
	Base
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	OfficeID uuid.UUID `json:"office_id" db:"office_id"`
}
