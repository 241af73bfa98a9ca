package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/splax/taskhub/internal/domain"
	"github.com/splax/taskhub/internal/repository"
	"github.com/splax/taskhub/pkg/config"
	"github.com/splax/taskhub/pkg/crypto"
	jwtpkg "github.com/splax/taskhub/pkg/jwt"
)

var (
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so that login failures do not reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service handles registration, login and token validation.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// Token is an identity assertion handed to the client on login.
type Token struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// Register creates an account and returns it. No session is established.
// The duplicate pre-check gives a friendly error for the common case; the
// database uniqueness constraint is the authoritative guard, so a lost
// race against a concurrent registration surfaces as the same ErrEmailTaken.
func (s Service) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, ErrMissingCredentials
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates an account and returns an identity assertion.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, Token, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, Token{}, ErrMissingCredentials
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Token{}, ErrInvalidCredentials
		}
		return nil, Token{}, err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, Token{}, ErrInvalidCredentials
	}
	access, err := jwtpkg.GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, Token{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, Token{AccessToken: access, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}

// Authorize validates a bearer token and returns the account id it is
// bound to. Validation is self-contained: the credential store is not
// consulted per request.
func (s Service) Authorize(ctx context.Context, token string) (int64, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return 0, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return 0, err
	}
	if claims.AccountID <= 0 {
		return 0, errors.New("token has no account binding")
	}
	return claims.AccountID, nil
}
