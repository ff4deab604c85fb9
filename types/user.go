package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin    = "admin"
	RoleUser     = "user"
	RoleReporter = "reporter"
)

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	// UserStatusPending marks an invited reporter whose credentials mail has
	// not been confirmed as delivered yet.
	UserStatusPending = "pending"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID primitive.ObjectID `json:"id" bson:"_id,omitempty"`

	// Name is the user's display name.
	Name string `json:"name" bson:"name"`

	// Email is stored lower-cased; uniqueness is enforced by an index.
	Email string `json:"email" bson:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" bson:"password"`

	Mobile string `json:"mobile,omitempty" bson:"mobile,omitempty"`

	// Status is one of active, inactive or pending.
	Status string `json:"status" bson:"status"`

	// Role indicates the user's authorization level: admin, user or reporter.
	Role string `json:"role" bson:"role"`

	AvatarURL string `json:"avatarUrl" bson:"avatarUrl"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserUpdate carries the fields to change; nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	PasswordHash *string
	AvatarURL    *string
	Status       *string
}

// UserFilter narrows user listings. Empty fields match everything.
type UserFilter struct {
	Role string
	// Text is matched as a case-insensitive substring of name, email,
	// mobile, status and role.
	Text string
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleReporter:
		return true
	}
	return false
}

func ValidUserStatus(status string) bool {
	switch status {
	case UserStatusActive, UserStatusInactive, UserStatusPending:
		return true
	}
	return false
}
