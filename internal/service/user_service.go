package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/finsight-ai/finsight-backend/internal/api/request"
	"github.com/finsight-ai/finsight-backend/internal/apperrors"
	"github.com/finsight-ai/finsight-backend/internal/auth"
	"github.com/finsight-ai/finsight-backend/internal/model"
	"github.com/finsight-ai/finsight-backend/internal/repository"
)

// UserService handles account registration and login.
type UserService struct {
	userRepo   *repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	log        zerolog.Logger
}

// NewUserService creates a new UserService. bcryptCost of 0 selects bcrypt.DefaultCost.
func NewUserService(userRepo *repository.UserRepository, tokens *auth.TokenManager, bcryptCost int, log zerolog.Logger) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		log:        log.With().Str("component", "users").Logger(),
	}
}

// Signup registers a new account. Emails are compared case-insensitively.
// Returns apperrors.ErrEmailTaken if the email is already registered.
func (s *UserService) Signup(ctx context.Context, req request.SignupRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)

	if _, err := s.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}

	if err := s.userRepo.InsertUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login verifies credentials and returns a bearer token.
// Unknown emails and wrong passwords both yield apperrors.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return "", apperrors.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID)
}

// TokenTTL reports how long issued tokens stay valid.
func (s *UserService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// GetUser returns the account for id.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
