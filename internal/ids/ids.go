// Package ids mints the opaque, prefixed identifiers used for every row.
package ids

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet leaves out characters that are easy to confuse (0/O, 1/l/I, ...).
const Alphabet = "346789ABCDEFGHJKLMNPQRTUVWXYabcdefghijkmnpqrtwxyz"

const Size = 12

type Kind string

const (
	User    Kind = "user"
	Story   Kind = "story"
	Comment Kind = "comment"
	Vote    Kind = "vote"
)

func (k Kind) prefix() string {
	return string(k) + "_"
}

// New returns "<kind>_" followed by Size random characters.
func New(kind Kind) string {
	return kind.prefix() + gonanoid.MustGenerate(Alphabet, Size)
}

func NewUserID() string    { return New(User) }
func NewStoryID() string   { return New(Story) }
func NewCommentID() string { return New(Comment) }
func NewVoteID() string    { return New(Vote) }

// StripPrefix turns a stored id into its URL form, e.g. story_abc -> abc.
func StripPrefix(id string, kind Kind) string {
	return strings.TrimPrefix(id, kind.prefix())
}

// WithPrefix is the inverse of StripPrefix. Already prefixed input is returned as is.
func WithPrefix(raw string, kind Kind) string {
	if raw == "" || strings.HasPrefix(raw, kind.prefix()) {
		return raw
	}
	return kind.prefix() + raw
}
