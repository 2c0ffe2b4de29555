package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/microlearn-be/internal/apperrors"
	"github.com/isdelr/microlearn-be/internal/auth"
	"github.com/isdelr/microlearn-be/internal/models"
	"github.com/isdelr/microlearn-be/internal/repository"
)

const invalidLoginMessage = "Invalid username/email or password"

// TokenIssuer issues session tokens for authenticated users.
type TokenIssuer interface {
	IssueDefault(subject string, role models.Role) (string, error)
	TTL() time.Duration
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"`
}

// LoginInput is the payload for exchanging credentials for a token.
type LoginInput struct {
	EmailOrUsername string `json:"email_or_username" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
	User        *models.User
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, in LoginInput) (*Session, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// UserService provides business logic for accounts and sessions.
type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	events EventServiceProvider
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, tokens TokenIssuer, events EventServiceProvider) *UserService {
	return &UserService{users: users, tokens: tokens, events: events, now: time.Now}
}

// Register creates a new account. Email and username must both be unused.
// The role defaults to learner.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	role := models.RoleLearner
	if in.Role != "" {
		parsed, err := models.ParseRole(in.Role)
		if err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		role = parsed
	}

	if err := s.ensureUnused(ctx, repository.UserQuery{Email: in.Email}, "Email already registered"); err != nil {
		return nil, err
	}
	if err := s.ensureUnused(ctx, repository.UserQuery{Username: in.Username}, "Username already taken"); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.InsertOne(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent registration.
			return nil, apperrors.Duplicate("Username or email already registered")
		}
		return nil, apperrors.Storage(err)
	}

	s.record(ctx, EventUserRegister, fmt.Sprintf("User '%s' registered as %s", user.Username, user.Role), user.Username)
	return user, nil
}

func (s *UserService) ensureUnused(ctx context.Context, q repository.UserQuery, message string) error {
	_, err := s.users.FindOne(ctx, q)
	switch {
	case err == nil:
		return apperrors.Duplicate(message)
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return apperrors.Storage(err)
	}
}

// Login verifies credentials against the user matched by email or username and
// issues a session token carrying the stored role.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.EmailOrUsername = strings.TrimSpace(in.EmailOrUsername)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindOne(ctx, repository.UserQuery{
		Email:    in.EmailOrUsername,
		Username: in.EmailOrUsername,
		AnyOf:    true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.InvalidCredentials(invalidLoginMessage)
		}
		return nil, apperrors.Storage(err)
	}

	if !auth.VerifyPassword(in.Password, user.PasswordHash) {
		log.Warn().Str("login", in.EmailOrUsername).Msg("Failed authentication attempt")
		return nil, apperrors.InvalidCredentials(invalidLoginMessage)
	}

	token, err := s.tokens.IssueDefault(user.Username, user.Role)
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to issue token: %w", err))
	}

	s.record(ctx, EventUserLogin, fmt.Sprintf("User '%s' logged in", user.Username), user.Username)
	return &Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.tokens.TTL(),
		User:        user,
	}, nil
}

// GetByUsername returns the account identified by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindOne(ctx, repository.UserQuery{Username: username})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", username)
		}
		return nil, apperrors.Storage(err)
	}
	return user, nil
}

// record writes an activity event. Failures are logged and never fail the caller.
func (s *UserService) record(ctx context.Context, eventType, message, subject string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, "info", message, &subject); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
