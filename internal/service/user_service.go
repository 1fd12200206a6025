package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, username string) (models.User, error)
	Delete(ctx context.Context, username string) error
	Mutate(ctx context.Context, fn func(items []models.User) ([]models.User, bool, error)) error
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns every user without credentials.
func (s *UserService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list users")
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserResponse(u))
	}
	return out, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Create stores a new user. Usernames are unique.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	user := models.User{
		Username:      req.Username,
		DisplayName:   req.DisplayName,
		Email:         req.Email,
		Role:          req.Role,
		ActiveCourses: req.ActiveCourses,
		Password:      hash,
	}

	err = s.repo.Mutate(ctx, func(items []models.User) ([]models.User, bool, error) {
		for _, existing := range items {
			if existing.Username == user.Username {
				return nil, false, appErrors.Clone(appErrors.ErrConflict, "username already exists")
			}
		}
		return append(items, user), true, nil
	})
	if err != nil {
		return nil, mapRepoError(err, "failed to create user")
	}

	s.logger.Info("user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Update modifies profile fields. The username is immutable.
func (s *UserService) Update(ctx context.Context, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	var hash string
	if req.Password != "" {
		h, err := HashPassword(req.Password)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		hash = h
	}

	var updated models.User
	err := s.repo.Mutate(ctx, func(items []models.User) ([]models.User, bool, error) {
		for i := range items {
			if items[i].Username != username {
				continue
			}
			items[i].DisplayName = req.DisplayName
			items[i].Email = req.Email
			items[i].Role = req.Role
			items[i].ActiveCourses = req.ActiveCourses
			if hash != "" {
				items[i].Password = hash
			}
			updated = items[i]
			return items, true, nil
		}
		return nil, false, repository.ErrNotFound
	})
	if err != nil {
		return nil, mapRepoError(err, "failed to update user")
	}
	resp := dto.NewUserResponse(updated)
	return &resp, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, username string) error {
	if err := s.repo.Delete(ctx, username); err != nil {
		return mapRepoError(err, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("username", username))
	return nil
}

// mapRepoError keeps typed errors and maps ErrNotFound to a 404.
func mapRepoError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, repository.ErrNotFound) {
		return appErrors.ErrNotFound
	}
	return appErrors.Internal(err, message)
}
