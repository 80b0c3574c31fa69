package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Names of the guarded actions.
const (
	Auth    = "auth"
	SignUp  = "signup"
	Story   = "story"
	Comment = "comment"
	Vote    = "vote"
	Unvote  = "unvote"
	Profile = "profile"
)

type Rule struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type Rules struct {
	Auth    Rule `yaml:"auth"`
	SignUp  Rule `yaml:"signup"`
	Story   Rule `yaml:"story"`
	Comment Rule `yaml:"comment"`
	Vote    Rule `yaml:"vote"`
	Unvote  Rule `yaml:"unvote"`
	Profile Rule `yaml:"profile"`
}

func DefaultRules() Rules {
	window := 15 * time.Minute
	return Rules{
		Auth:    Rule{Limit: 5, Window: window},
		SignUp:  Rule{Limit: 1, Window: window},
		Story:   Rule{Limit: 1, Window: window},
		Comment: Rule{Limit: 5, Window: window},
		Vote:    Rule{Limit: 30, Window: window},
		Unvote:  Rule{Limit: 30, Window: window},
		Profile: Rule{Limit: 5, Window: window},
	}
}

func (r Rules) byName() map[string]Rule {
	return map[string]Rule{
		Auth:    r.Auth,
		SignUp:  r.SignUp,
		Story:   r.Story,
		Comment: r.Comment,
		Vote:    r.Vote,
		Unvote:  r.Unvote,
		Profile: r.Profile,
	}
}

// Set holds one limiter per action name.
type Set struct {
	limiters map[string]Limiter
}

// NewSet builds Redis limiters for every rule. Keys are stored as
// "<prefix>:<name>:<key>".
func NewSet(client redis.Scripter, prefix string, rules Rules) (*Set, error) {
	if prefix == "" {
		prefix = "ainews:ratelimit"
	}
	s := &Set{limiters: make(map[string]Limiter)}
	for name, rule := range rules.byName() {
		l, err := NewSlidingWindowLimiter(client, prefix+":"+name, rule.Limit, rule.Window)
		if err != nil {
			return nil, fmt.Errorf("limiter %s: %w", name, err)
		}
		s.limiters[name] = l
	}
	return s, nil
}

// NewUnlimitedSet never rejects. The server falls back to it without Redis.
func NewUnlimitedSet() *Set {
	slog.Warn("rate limiting disabled: no redis configured")
	s := &Set{limiters: make(map[string]Limiter)}
	for name := range DefaultRules().byName() {
		s.limiters[name] = Unlimited{}
	}
	return s
}

// Allow checks key against the named limiter. Unknown names are not limited.
func (s *Set) Allow(ctx context.Context, name, key string) (bool, error) {
	if s == nil {
		return true, nil
	}
	l, ok := s.limiters[name]
	if !ok {
		return true, nil
	}
	return l.Allow(ctx, key)
}
