package models

import (
	"time"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:256" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"` // 小写存储
	Password  string    `gorm:"size:256;not null" json:"-"`                   // bcrypt hash
	Email     *string   `gorm:"size:256" json:"email,omitempty"`
	Bio       *string   `gorm:"type:text" json:"bio,omitempty"`
	Karma     int       `gorm:"not null;default:0" json:"karma"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BioText returns the bio or an empty string.
func (u User) BioText() string {
	if u.Bio == nil {
		return ""
	}
	return *u.Bio
}

func (u User) EmailText() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
