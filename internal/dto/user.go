package dto

import "github.com/noah-isme/smart-student-api/internal/models"

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Username      string          `json:"username" validate:"required,min=3,max=64"`
	DisplayName   string          `json:"displayName" validate:"required"`
	Email         string          `json:"email" validate:"omitempty,email"`
	Role          models.UserRole `json:"role" validate:"required,oneof=admin teacher student"`
	ActiveCourses []string        `json:"activeCourses"`
	Password      string          `json:"password" validate:"required,min=6"`
}

// UpdateUserRequest payload for updating users. Empty password keeps the current one.
type UpdateUserRequest struct {
	DisplayName   string          `json:"displayName" validate:"required"`
	Email         string          `json:"email" validate:"omitempty,email"`
	Role          models.UserRole `json:"role" validate:"required,oneof=admin teacher student"`
	ActiveCourses []string        `json:"activeCourses"`
	Password      string          `json:"password" validate:"omitempty,min=6"`
}

// UserResponse is a user without credentials.
type UserResponse struct {
	Username      string          `json:"username"`
	DisplayName   string          `json:"displayName"`
	Email         string          `json:"email"`
	Role          models.UserRole `json:"role"`
	ActiveCourses []string        `json:"activeCourses"`
}

// NewUserResponse strips the password from u.
func NewUserResponse(u models.User) UserResponse {
	courses := u.ActiveCourses
	if courses == nil {
		courses = []string{}
	}
	return UserResponse{
		Username:      u.Username,
		DisplayName:   u.DisplayName,
		Email:         u.Email,
		Role:          u.Role,
		ActiveCourses: courses,
	}
}
