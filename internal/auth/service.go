package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the email or password is wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// CredentialStore is the persistence the auth Service depends on.
type CredentialStore interface {
	GetCredentials(ctx context.Context, email string) (*credentials, error)
	RecordLogin(ctx context.Context, id string) error
}

// LoginResult holds the token issued by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	AdminID   string    `json:"adminId"`
}

// Service contains the business logic for password authentication.
type Service struct {
	repo   CredentialStore
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new auth Service.
func NewService(repo CredentialStore, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl, logger: logger, now: time.Now}
}

// Login verifies the password and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	c, err := s.repo.GetCredentials(ctx, email)
	if errors.Is(err, errNoCredentials) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.RecordLogin(ctx, c.ID); err != nil {
		s.logger.Warn("record login failed", zap.String("admin", c.ID), zap.Error(err))
	}

	res, err := s.issueToken(c.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return res, nil
}

// issueToken creates a signed JWT for the given admin.
func (s *Service) issueToken(adminID string) (*LoginResult, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   adminID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, AdminID: adminID}, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
