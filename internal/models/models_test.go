package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestUserOptionalFields(t *testing.T) {
	var empty User
	assert.Equal(t, "", empty.BioText())
	assert.Equal(t, "", empty.EmailText())

	u := User{Bio: strPtr("hacker"), Email: strPtr("a@example.com")}
	assert.Equal(t, "hacker", u.BioText())
	assert.Equal(t, "a@example.com", u.EmailText())

	// 指针接收也能调用
	p := &u
	assert.Equal(t, "hacker", p.BioText())
}

func TestStoryOptionalFields(t *testing.T) {
	var s Story
	assert.Equal(t, "", s.TextValue())
	assert.Equal(t, "", s.URLValue())
	assert.Equal(t, "", s.DomainValue())
	assert.Equal(t, "", s.SubmitterName())

	s = Story{Text: strPtr("t"), URL: strPtr("https://example.com"), Domain: strPtr("example.com"), Username: strPtr("bot")}
	assert.Equal(t, "t", s.TextValue())
	assert.Equal(t, "https://example.com", s.URLValue())
	assert.Equal(t, "example.com", s.DomainValue())
	assert.Equal(t, "bot", s.SubmitterName())

	s.Submitter = &User{Username: "alice"}
	assert.Equal(t, "alice", s.SubmitterName())
}

func TestCommentAuthorName(t *testing.T) {
	c := Comment{Username: strPtr("old")}
	assert.Equal(t, "old", c.AuthorName())
	c.Author = &User{Username: "new"}
	assert.Equal(t, "new", c.AuthorName())
	assert.Equal(t, "", Comment{}.AuthorName())
}

func TestParseStoryType(t *testing.T) {
	st, ok := ParseStoryType(" Show ")
	assert.True(t, ok)
	assert.Equal(t, StoryTypeShow, st)
	_, ok = ParseStoryType("poll")
	assert.False(t, ok)
}
