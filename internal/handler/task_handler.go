package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/middleware"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/service"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/response"
)

type taskService interface {
	Create(ctx context.Context, viewer models.Viewer, req dto.CreateTaskRequest) (*models.Task, error)
	List(ctx context.Context, viewer models.Viewer) ([]models.Task, error)
	Get(ctx context.Context, viewer models.Viewer, id string) (*models.Task, error)
	Delete(ctx context.Context, viewer models.Viewer, id string) error
	Submit(ctx context.Context, viewer models.Viewer, taskID, text string, files []service.AttachmentUpload) (*dto.CommentResponse, error)
	Grade(ctx context.Context, viewer models.Viewer, taskID string, req dto.GradeRequest) (*models.Comment, error)
	Submissions(ctx context.Context, viewer models.Viewer, taskID string) ([]dto.CommentResponse, error)
}

type gradeExporter interface {
	GradeSheet(ctx context.Context, viewer models.Viewer, taskID, format string) (*service.GradeSheet, error)
}

// TaskHandler exposes the task lifecycle.
type TaskHandler struct {
	service     taskService
	exporter    gradeExporter
	maxFormSize int64
}

// NewTaskHandler constructs a task handler. maxFormSize bounds multipart bodies.
func NewTaskHandler(svc taskService, exporter gradeExporter, maxFormSize int64) *TaskHandler {
	if maxFormSize <= 0 {
		maxFormSize = 32 << 20
	}
	return &TaskHandler{service: svc, exporter: exporter, maxFormSize: maxFormSize}
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if !bindJSON(c, &req, "invalid task payload") {
		return
	}
	task, err := h.service.Create(c.Request.Context(), viewer, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// List godoc
// @Summary List tasks visible to the caller
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	tasks, err := h.service.List(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(tasks))
	response.OK(c, tasks, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	task, err := h.service.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, task)
}

// Delete godoc
// @Summary Delete task
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), viewer, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit work for a task
// @Description Accepts multipart/form-data with "comment" and "files" parts, or JSON with base64 files.
// @Tags Tasks
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.SubmitTaskRequest false "JSON submission"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /tasks/{id}/submissions [post]
func (h *TaskHandler) Submit(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}

	var (
		text  string
		files []service.AttachmentUpload
		err   error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var closers []io.Closer
		text, files, closers, err = h.readMultipart(c)
		defer func() {
			for _, cl := range closers {
				_ = cl.Close()
			}
		}()
	} else {
		text, files, err = readInlineSubmission(c)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	submission, err := h.service.Submit(c.Request.Context(), viewer, c.Param("id"), text, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

func (h *TaskHandler) readMultipart(c *gin.Context) (string, []service.AttachmentUpload, []io.Closer, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFormSize)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, nil, appErrors.ErrPayloadTooLarge
		}
		return "", nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart submission")
	}

	text := ""
	if values := form.Value["comment"]; len(values) > 0 {
		text = values[0]
	}
	headers := form.File["files"]
	files := make([]service.AttachmentUpload, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return "", nil, closers, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file part")
		}
		closers = append(closers, f)
		files = append(files, uploadFromHeader(fh, f))
	}
	return text, files, closers, nil
}

func uploadFromHeader(fh *multipart.FileHeader, body io.Reader) service.AttachmentUpload {
	return service.AttachmentUpload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        body,
	}
}

func readInlineSubmission(c *gin.Context) (string, []service.AttachmentUpload, error) {
	var req dto.SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload")
	}
	files := make([]service.AttachmentUpload, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			return "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file data must be base64")
		}
		files = append(files, service.AttachmentUpload{
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        int64(len(data)),
			Body:        bytes.NewReader(data),
		})
	}
	return req.Comment, files, nil
}

// Grade godoc
// @Summary Grade a submission
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.GradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id}/grade [post]
func (h *TaskHandler) Grade(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req dto.GradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	graded, err := h.service.Grade(c.Request.Context(), viewer, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, graded)
}

// Submissions godoc
// @Summary List submissions for a task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/submissions [get]
func (h *TaskHandler) Submissions(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	subs, err := h.service.Submissions(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subs)
}

// ExportGrades godoc
// @Summary Export the grade sheet of a task
// @Tags Tasks
// @Produce text/csv,application/pdf
// @Param id path string true "Task ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /tasks/{id}/grades/export [get]
func (h *TaskHandler) ExportGrades(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	sheet, err := h.exporter.GradeSheet(c.Request.Context(), viewer, c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+sheet.Filename+"\"")
	c.Data(http.StatusOK, sheet.ContentType, sheet.Data)
}
