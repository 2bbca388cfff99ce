package entity

import (
	"bookline-api/core/entity"
)

type User struct {
	entity.BaseEntity
	Email        string  `db:"email" json:"email"`
	Username     string  `db:"username" json:"username"`
	PasswordHash string  `db:"password_hash" json:"-"`
	FullName     string  `db:"full_name" json:"full_name"`
	Role         string  `db:"role" json:"role"`
	BookingSlug  string  `db:"booking_slug" json:"booking_slug"`
	AvatarURL    *string `db:"avatar_url" json:"avatar_url,omitempty"`
}

func (User) TableName() string {
	return "users"
}
