package models

import (
	"time"
)

type Comment struct {
	ID        string    `gorm:"primaryKey;size:256" json:"id"`
	StoryID   string    `gorm:"size:256;not null;index" json:"story_id"`
	Story     *Story    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID  *string   `gorm:"size:256;index" json:"parent_id"` // Nullable for top-level comments
	Parent    *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Username  *string   `gorm:"size:256" json:"username,omitempty"`
	AuthorID  *string   `gorm:"column:author;size:256;index" json:"author,omitempty"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Body      string    `gorm:"column:comment;type:text;not null" json:"comment"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthorName prefers the author's current username over the stored label.
func (c Comment) AuthorName() string {
	if c.Author != nil {
		return c.Author.Username
	}
	if c.Username != nil {
		return *c.Username
	}
	return ""
}
