package services

import (
	"context"
	"errors"
	"strings"

	"ainews/internal/auth"
	"ainews/internal/ids"
	"ainews/internal/models"
	"ainews/internal/ratelimit"
	"ainews/internal/store"
)

const (
	msgTooManyAttempts = "Too many attempts. Try again later"
	msgAuthFailed      = "Auth failed. Check your credentials"
)

// Credentials is the sign-in / sign-up form. Next is where to go afterwards.
type Credentials struct {
	Username string `form:"username" json:"username" validate:"min=3,max=20"`
	Password string `form:"password" json:"password" validate:"min=8,max=256"`
	Next     string `form:"next" json:"next" validate:"omitempty,oneof=/ /threads /submit"`
}

func (c *Credentials) normalize() {
	c.Username = strings.ToLower(strings.TrimSpace(c.Username))
}

// Redirect returns the post-login destination.
func (c Credentials) Redirect() string {
	switch c.Next {
	case "/threads", "/submit":
		return c.Next
	}
	return "/"
}

type ProfileInput struct {
	Email string `form:"email" json:"email" validate:"omitempty,max=256,email"`
	Bio   string `form:"bio" json:"bio" validate:"max=1000"`
}

type AccountService struct {
	store  store.Store
	limits *ratelimit.Set
}

func NewAccountService(st store.Store, limits *ratelimit.Set) *AccountService {
	return &AccountService{store: st, limits: limits}
}

func (s *AccountService) authLimit(ctx context.Context, name, ip string) error {
	if err := checkLimit(ctx, s.limits, name, ip); err != nil {
		if IsCode(err, CodeRateLimit) {
			return newAuthError(msgTooManyAttempts)
		}
		return err
	}
	return nil
}

// SignUp creates an account. Limits are keyed by client ip.
func (s *AccountService) SignUp(ctx context.Context, ip string, in Credentials) (*models.User, error) {
	if err := s.authLimit(ctx, ratelimit.Auth, ip); err != nil {
		return nil, err
	}
	in.normalize()
	if fields := fieldErrors(in); fields != nil {
		return nil, NewValidationError(fields)
	}

	if _, err := s.store.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, NewValidationError(map[string][]string{"username": {"Username already exists"}})
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, internalError("account.signup", err)
	}

	if err := s.authLimit(ctx, ratelimit.SignUp, ip); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, internalError("account.signup", err)
	}
	user := &models.User{
		ID:       ids.NewUserID(),
		Username: in.Username,
		Password: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, NewValidationError(map[string][]string{"username": {"Username already exists"}})
		}
		return nil, internalError("account.signup", err)
	}
	return user, nil
}

// SignIn checks credentials. Every failure looks the same to the caller.
func (s *AccountService) SignIn(ctx context.Context, ip string, in Credentials) (*models.User, error) {
	if err := s.authLimit(ctx, ratelimit.Auth, ip); err != nil {
		return nil, err
	}
	in.normalize()
	if fieldErrors(in) != nil {
		return nil, newAuthError(msgAuthFailed)
	}

	user, err := s.store.GetUserByUsername(ctx, in.Username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newAuthError(msgAuthFailed)
	}
	if err != nil {
		return nil, internalError("account.signin", err)
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return nil, newAuthError(msgAuthFailed)
	}
	return user, nil
}

// UpdateProfile changes the non-empty fields of user's profile.
func (s *AccountService) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) error {
	in.Email = strings.TrimSpace(in.Email)
	in.Bio = strings.TrimSpace(in.Bio)
	if fields := fieldErrors(in); fields != nil {
		return NewValidationError(fields)
	}
	if err := checkLimit(ctx, s.limits, ratelimit.Profile, user.ID); err != nil {
		return err
	}

	var email, bio *string
	if in.Email != "" {
		email = &in.Email
	}
	if in.Bio != "" {
		bio = &in.Bio
	}
	if email == nil && bio == nil {
		return nil
	}
	if err := s.store.UpdateProfile(ctx, user.ID, email, bio); err != nil {
		return internalError("account.profile", err)
	}
	return nil
}

// Profile loads a public profile. Unknown ids return store.ErrNotFound.
func (s *AccountService) Profile(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// ByUsername looks a user up by username.
func (s *AccountService) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.store.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
}
