package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"resumehub/internal/database"
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password so a
	// caller cannot tell which field was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized covers missing, malformed and expired tokens, and
	// tokens whose subject no longer resolves to a user.
	ErrUnauthorized = errors.New("unauthorized")
)

// Service registers and authenticates users and exchanges credentials for
// bearer tokens.
type Service struct {
	db     *gorm.DB
	tokens *TokenService
}

// NewService constructs the auth service.
func NewService(db *gorm.DB, tokens *TokenService) *Service {
	return &Service{db: db, tokens: tokens}
}

// Register creates an account and returns a freshly issued token bound to
// the user's email. Email matching is a case-sensitive exact match on the
// stored value.
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	var existing database.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		return "", ErrEmailTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	user := database.User{Email: email, PasswordHash: hashed}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	return s.tokens.Issue(user.Email)
}

// Login verifies credentials and issues a token. Unknown email and password
// mismatch produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	var user database.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !CheckPasswordHash(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Email)
}

// Authenticate resolves a bearer token to its user. It is the precondition
// for every resume operation.
func (s *Service) Authenticate(ctx context.Context, token string) (*database.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	var user database.User
	if err := s.db.WithContext(ctx).Where("email = ?", subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return &user, nil
}
