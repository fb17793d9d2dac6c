package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithSecret("test-secret")}, opts...)
	s, err := NewService(opts...)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return s
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService(); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("NewService without secret = %v, want ErrMissingSecret", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	s := newTestService(t)
	hash, err := s.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter2" {
		t.Error("hash equals plaintext password")
	}
	if !s.VerifyPassword(hash, "hunter2") {
		t.Error("VerifyPassword rejected the correct password")
	}
	if s.VerifyPassword(hash, "wrong") {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestService(t)
	token, err := s.CreateAccessToken("coach@example.com")
	if err != nil {
		t.Fatalf("CreateAccessToken failed: %v", err)
	}
	email, err := s.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if email != "coach@example.com" {
		t.Errorf("VerifyToken subject = %q, want coach@example.com", email)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	s := newTestService(t)
	if _, err := s.VerifyToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken on garbage = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTestService(t)
	token, err := issuer.CreateAccessToken("coach@example.com")
	if err != nil {
		t.Fatalf("CreateAccessToken failed: %v", err)
	}

	verifier, err := NewService(WithSecret("different-secret"))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if _, err := verifier.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	s := newTestService(t, WithTokenTTL(-time.Minute))
	token, err := s.CreateAccessToken("coach@example.com")
	if err != nil {
		t.Fatalf("CreateAccessToken failed: %v", err)
	}
	if _, err := s.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken on expired token = %v, want ErrInvalidToken", err)
	}
}
