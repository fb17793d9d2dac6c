// Package auth provides password hashing and JWT access tokens for LifeRank.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Error variables for better error handling and testability
var (
	// ErrInvalidToken indicates a token that failed signature or claims validation.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrMissingSecret indicates the service was built without a signing secret.
	ErrMissingSecret = errors.New("JWT secret not set")
)

// DefaultTokenTTL is how long issued access tokens stay valid.
const DefaultTokenTTL = 30 * time.Minute

// Opts holds configuration options for the auth service.
type Opts struct {
	// Secret is the HMAC signing secret for access tokens.
	Secret string
	// TokenTTL overrides the default token lifetime.
	TokenTTL time.Duration
}

// Option configures the auth service.
type Option func(*Opts)

// WithSecret sets the HMAC signing secret.
func WithSecret(secret string) Option {
	return func(o *Opts) {
		o.Secret = secret
	}
}

// WithTokenTTL sets the token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *Opts) {
		o.TokenTTL = ttl
	}
}

// Service issues and verifies HS256 access tokens and hashes passwords.
type Service struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates an auth service. A signing secret is required.
func NewService(opts ...Option) (*Service, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Secret == "" {
		slog.Error("Auth.NewService: JWT secret not set")
		return nil, ErrMissingSecret
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	slog.Debug("Auth.NewService: service created", "tokenTTL", ttl)
	return &Service{secret: []byte(cfg.Secret), tokenTTL: ttl}, nil
}

// HashPassword returns the bcrypt hash of a plaintext password.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Auth.HashPassword failed", "error", err)
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext password matches the hash.
func (s *Service) VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// CreateAccessToken issues a signed token whose subject is the user's email.
func (s *Service) CreateAccessToken(email string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		slog.Error("Auth.CreateAccessToken: signing failed", "error", err)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	slog.Debug("Auth.CreateAccessToken: token issued", "expiresAt", claims.ExpiresAt)
	return signed, nil
}

// VerifyToken validates a token and returns the email it was issued for.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		slog.Debug("Auth.VerifyToken: validation failed", "error", err)
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
