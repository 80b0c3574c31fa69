package models

import (
	"strings"
	"time"
)

type StoryType string

const (
	StoryTypeStory StoryType = "story"
	StoryTypeAsk   StoryType = "ask"
	StoryTypeShow  StoryType = "show"
	StoryTypeJobs  StoryType = "jobs"
)

// ParseStoryType returns the matching type, or false for unknown input.
func ParseStoryType(s string) (StoryType, bool) {
	switch t := StoryType(strings.ToLower(strings.TrimSpace(s))); t {
	case StoryTypeStory, StoryTypeAsk, StoryTypeShow, StoryTypeJobs:
		return t, true
	}
	return "", false
}

type Story struct {
	ID            string    `gorm:"primaryKey;size:256" json:"id"`
	Type          StoryType `gorm:"size:10;not null;default:story;index" json:"type"`
	Title         string    `gorm:"size:256;not null" json:"title"`
	Text          *string   `gorm:"type:text" json:"text,omitempty"`
	URL           *string   `gorm:"size:2048" json:"url,omitempty"`
	Domain        *string   `gorm:"size:256" json:"domain,omitempty"`
	Username      *string   `gorm:"size:256" json:"username,omitempty"` // 生成内容的署名，非注册用户
	SubmittedBy   *string   `gorm:"size:256;index" json:"submitted_by,omitempty"`
	Submitter     *User     `gorm:"foreignKey:SubmittedBy;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Points        int       `gorm:"not null;default:0" json:"points"`
	CommentsCount int       `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SubmitterName resolves the author label shown next to a story:
// the registered submitter if loaded, otherwise the denormalized username.
func (s Story) SubmitterName() string {
	if s.Submitter != nil {
		return s.Submitter.Username
	}
	if s.Username != nil {
		return *s.Username
	}
	return ""
}

func (s Story) TextValue() string {
	if s.Text == nil {
		return ""
	}
	return *s.Text
}

func (s Story) URLValue() string {
	if s.URL == nil {
		return ""
	}
	return *s.URL
}

func (s Story) DomainValue() string {
	if s.Domain == nil {
		return ""
	}
	return *s.Domain
}
