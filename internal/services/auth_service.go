package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neurosense/assessment-service/internal/models"
	"github.com/neurosense/assessment-service/internal/repositories"
	"github.com/neurosense/assessment-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	logger    *ServiceLogger
	validator *validator.Validator
}

// NewAuthService checks demo credentials against the user store. There is no
// token issuance; callers identify themselves with the user ID afterwards.
func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) AuthService {
	return &authService{
		repo:      repo,
		logger:    NewServiceLogger(logger, LogConfig{Service: "auth", Component: "service"}),
		validator: validator,
	}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	op := s.logger.WithOperation(ctx, "login", req.Email)

	user, err := s.login(ctx, req)
	resourceID := ""
	if user != nil {
		resourceID = user.ID
	}
	op.LogResult(resourceID, "user", err)
	return user, err
}

func (s *authService) login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(req.Password)) != 1 {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
