package auth

import (
	"errors"
	"testing"
	"time"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("hash must not equal the password")
	}
	if !CheckPassword(hash, "correct horse") {
		t.Errorf("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Errorf("expected wrong password to fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Issue("user_abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	uid, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user_abc" {
		t.Errorf("got %q, want user_abc", uid)
	}
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	token, _ := NewTokenManager("secret", time.Hour).Issue("user_abc")
	_, err := NewTokenManager("other", time.Hour).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenExpires(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	issued := time.Now()
	m.now = func() time.Time { return issued }
	token, _ := m.Issue("user_abc")

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	if _, err := m.Verify("not-a-token"); err == nil {
		t.Fatalf("expected error")
	}
}
