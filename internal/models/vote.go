package models

import (
	"time"
)

// Vote is a user's upvote on a story. The composite unique index keeps
// at most one row per (user, story), even under concurrent requests.
type Vote struct {
	ID        string    `gorm:"primaryKey;size:256" json:"id"`
	UserID    string    `gorm:"size:256;not null;uniqueIndex:idx_votes_user_story" json:"user_id"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	StoryID   string    `gorm:"size:256;not null;uniqueIndex:idx_votes_user_story;index" json:"story_id"`
	Story     *Story    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
