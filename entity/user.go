package entity

import (
	"net/http"
	"time"

	"eventreg/lib/validate"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User is an API user resolved from a bearer token. Admins may also link a Telegram
// chat to receive operational alerts.
type User struct {
	Username         string    `json:"username" bson:"username" yaml:"username" validate:"required"`
	Name             string    `json:"name" bson:"name" yaml:"name" validate:"omitempty"`
	Email            string    `json:"email" bson:"email" yaml:"email" validate:"omitempty"`
	Token            string    `json:"token" bson:"token" yaml:"token" validate:"required,min=1"`
	Role             Role      `json:"role" bson:"role" yaml:"role" validate:"required,oneof=student admin"`
	SubmitterID      string    `json:"submitter_id" bson:"submitter_id" yaml:"submitter_id"`
	TelegramId       int64     `json:"telegram_id" bson:"telegram_id" yaml:"-" validate:"omitempty"`
	TelegramUsername string    `json:"telegram_username" bson:"telegram_username" yaml:"-"`
	TelegramEnabled  bool      `json:"telegram_enabled" bson:"telegram_enabled" yaml:"-"`
	LogLevel         int       `json:"log_level" bson:"log_level" yaml:"-"`
	RegisteredAt     time.Time `json:"registered_at" bson:"registered_at" yaml:"-"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Owns reports whether the user acts as the given submitter.
func (u *User) Owns(submitterID string) bool {
	return u.SubmitterID != "" && u.SubmitterID == submitterID
}
