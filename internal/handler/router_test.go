package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/service"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

// tokenTable maps bearer tokens straight to claims.
type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type stubAuth struct{}

func (stubAuth) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "pw" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "student"}, nil
}

type stubUsers struct{}

func (stubUsers) List(context.Context) ([]dto.UserResponse, error) { return []dto.UserResponse{}, nil }
func (stubUsers) Get(_ context.Context, username string) (*dto.UserResponse, error) {
	return &dto.UserResponse{Username: username}, nil
}
func (stubUsers) Create(_ context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	return &dto.UserResponse{Username: req.Username}, nil
}
func (stubUsers) Update(_ context.Context, username string, _ dto.UpdateUserRequest) (*dto.UserResponse, error) {
	return &dto.UserResponse{Username: username}, nil
}
func (stubUsers) Delete(context.Context, string) error { return nil }

type stubComments struct{}

func (stubComments) Add(context.Context, models.Viewer, string, dto.CommentRequest) (*models.Comment, error) {
	return &models.Comment{}, nil
}
func (stubComments) List(context.Context, models.Viewer, string) ([]dto.CommentResponse, error) {
	return nil, nil
}
func (stubComments) MarkRead(context.Context, models.Viewer, string) (*models.Comment, error) {
	return &models.Comment{}, nil
}

type stubCourses struct{}

func (stubCourses) List(context.Context, models.Viewer) ([]dto.CourseSummary, error) {
	return []dto.CourseSummary{}, nil
}

type stubAI struct{}

func (stubAI) Request(_ context.Context, _ models.Viewer, kind string, _ dto.GenerationRequest) (*dto.GenerationResponse, error) {
	return &dto.GenerationResponse{ID: "g1", Kind: kind, Status: models.GenerationPending}, nil
}
func (stubAI) Get(_ context.Context, _ models.Viewer, id string) (*dto.GenerationResponse, error) {
	return &dto.GenerationResponse{ID: id}, nil
}

type stubAttachments struct{}

func (stubAttachments) Open(context.Context, string) (*service.AttachmentDownload, error) {
	return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	tokens := tokenTable{
		"student": {Username: "maria", Role: models.RoleStudent},
		"teacher": {Username: "jorge", Role: models.RoleTeacher},
		"admin":   {Username: "root", Role: models.RoleAdmin},
	}
	RegisterRoutes(r.Group("/api/v1"), Handlers{
		Auth:          NewAuthHandler(stubAuth{}, stubUsers{}),
		Users:         NewUserHandler(stubUsers{}),
		Tasks:         NewTaskHandler(&fakeTaskService{}, fakeExporter{}, 0),
		Comments:      NewCommentHandler(stubComments{}),
		Notifications: NewNotificationHandler(&fakeNotificationService{}),
		Courses:       NewCourseHandler(stubCourses{}),
		AI:            NewAIHandler(stubAI{}),
		Attachments:   NewAttachmentHandler(stubAttachments{}),
		Repairs:       NewRepairHandler(&fakeRepairService{}),
		Metrics:       NewMetricsHandler(service.NewMetricsService(), nil),
	}, tokens, nil)
	return r
}

func TestRouterAccessRules(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"login is public", http.MethodPost, "/api/v1/auth/login", "", `{"username":"maria","password":"pw"}`, http.StatusOK},
		{"bad login", http.MethodPost, "/api/v1/auth/login", "", `{"username":"maria","password":"no"}`, http.StatusUnauthorized},
		{"attachments need a valid token only", http.MethodGet, "/api/v1/attachments/abc", "", "", http.StatusForbidden},
		{"anonymous tasks", http.MethodGet, "/api/v1/tasks", "", "", http.StatusUnauthorized},
		{"student lists tasks", http.MethodGet, "/api/v1/tasks", "student", "", http.StatusOK},
		{"student cannot create tasks", http.MethodPost, "/api/v1/tasks", "student", `{}`, http.StatusForbidden},
		{"teacher creates tasks", http.MethodPost, "/api/v1/tasks", "teacher", `{"title":"Essay"}`, http.StatusCreated},
		{"teacher cannot submit", http.MethodPost, "/api/v1/tasks/t1/submissions", "teacher", `{}`, http.StatusForbidden},
		{"student cannot grade", http.MethodPost, "/api/v1/tasks/t1/grade", "student", `{}`, http.StatusForbidden},
		{"unread count", http.MethodGet, "/api/v1/notifications/unread/count", "student", "", http.StatusOK},
		{"read-all", http.MethodPost, "/api/v1/notifications/read-all", "student", "", http.StatusOK},
		{"mark read", http.MethodPost, "/api/v1/notifications/n1/read", "student", "", http.StatusOK},
		{"ai is async", http.MethodPost, "/api/v1/ai/quiz", "student", `{"topic":"verbs"}`, http.StatusAccepted},
		{"poll generation", http.MethodGet, "/api/v1/ai/generations/g1", "student", "", http.StatusOK},
		{"self profile", http.MethodGet, "/api/v1/users/maria", "student", "", http.StatusOK},
		{"other profile", http.MethodGet, "/api/v1/users/pedro", "student", "", http.StatusForbidden},
		{"repairs are admin only", http.MethodPost, "/api/v1/admin/repairs/comments", "teacher", "", http.StatusForbidden},
		{"admin repairs", http.MethodPost, "/api/v1/admin/repairs/comments", "admin", "", http.StatusOK},
		{"admin metrics", http.MethodGet, "/api/v1/admin/metrics", "admin", "", http.StatusOK},
		{"me", http.MethodGet, "/api/v1/me", "teacher", "", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
