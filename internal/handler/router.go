package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/middleware"
	"github.com/noah-isme/smart-student-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Tasks         *TaskHandler
	Comments      *CommentHandler
	Notifications *NotificationHandler
	Courses       *CourseHandler
	AI            *AIHandler
	Attachments   *AttachmentHandler
	Repairs       *RepairHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts the API on group. tokens authenticates every route
// except login and signed attachment downloads.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator, auditLogger *zap.Logger) {
	group.Use(middleware.WithResponseMeta())

	group.POST("/auth/login", h.Auth.Login)
	group.GET("/attachments/:token", h.Attachments.Download)

	secured := group.Group("")
	secured.Use(middleware.JWT(tokens))

	teacher := middleware.RequireRoles(models.RoleTeacher)
	student := middleware.RequireRoles(models.RoleStudent)
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)

	secured.GET("/me", h.Auth.Me)

	users := secured.Group("/users")
	users.GET("", admin, h.Users.List)
	users.POST("", admin, middleware.Audit(auditLogger, "user.create"), h.Users.Create)
	users.GET("/:username", middleware.RBAC(string(models.RoleAdmin), middleware.SelfParam), h.Users.Get)
	users.PUT("/:username", admin, middleware.Audit(auditLogger, "user.update"), h.Users.Update)
	users.DELETE("/:username", admin, middleware.Audit(auditLogger, "user.delete"), h.Users.Delete)

	tasks := secured.Group("/tasks")
	tasks.GET("", h.Tasks.List)
	tasks.POST("", teacher, h.Tasks.Create)
	tasks.GET("/:id", h.Tasks.Get)
	tasks.DELETE("/:id", staff, h.Tasks.Delete)
	tasks.POST("/:id/submissions", student, h.Tasks.Submit)
	tasks.GET("/:id/submissions", teacher, h.Tasks.Submissions)
	tasks.POST("/:id/grade", teacher, h.Tasks.Grade)
	tasks.GET("/:id/grades/export", staff, h.Tasks.ExportGrades)
	tasks.GET("/:id/comments", h.Comments.List)
	tasks.POST("/:id/comments", middleware.RequireRoles(models.RoleTeacher, models.RoleStudent), h.Comments.Add)

	secured.POST("/comments/:id/read", h.Comments.MarkRead)

	notifications := secured.Group("/notifications")
	notifications.GET("/unread", h.Notifications.Unread)
	notifications.GET("/unread/count", h.Notifications.UnreadCount)
	notifications.POST("/read-all", h.Notifications.MarkAllRead)
	notifications.POST("/:id/read", h.Notifications.MarkRead)

	secured.GET("/courses", h.Courses.List)

	secured.POST("/ai/:kind", h.AI.Request)
	secured.GET("/ai/generations/:id", h.AI.Get)

	adminGroup := secured.Group("/admin", admin)
	adminGroup.POST("/repairs/:collection", middleware.Audit(auditLogger, "repair"), h.Repairs.Run)
	adminGroup.GET("/metrics", h.Metrics.Summary)
}
