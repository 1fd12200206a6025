package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/storage"
)

// AttachmentUpload is a file received with a submission.
type AttachmentUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachmentDownload is an opened attachment ready to stream.
type AttachmentDownload struct {
	Body        io.ReadCloser
	Name        string
	ContentType string
	Size        int64
}

type commentLookup interface {
	Get(ctx context.Context, id string) (models.Comment, error)
}

// AttachmentService stores submission files and issues signed download links.
type AttachmentService struct {
	store       storage.ObjectStore
	signer      *storage.SignedURLSigner
	comments    commentLookup
	baseURL     string
	maxFileSize int64
	logger      *zap.Logger
}

// NewAttachmentService constructs the service. baseURL prefixes download tokens.
func NewAttachmentService(store storage.ObjectStore, signer *storage.SignedURLSigner, comments commentLookup, baseURL string, maxFileSize int64, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		store:       store,
		signer:      signer,
		comments:    comments,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Store saves files under tasks/<task>/<student>/. Files saved before a
// failure are removed again.
func (s *AttachmentService) Store(ctx context.Context, taskID, student string, files []AttachmentUpload) ([]models.Attachment, error) {
	stored := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		if s.maxFileSize > 0 && f.Size > s.maxFileSize {
			s.Discard(ctx, stored)
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("%s exceeds the %d byte limit", f.Name, s.maxFileSize))
		}
		name := sanitizeFilename(f.Name)
		key := path.Join("tasks", taskID, student, uuid.NewString()+"-"+name)
		if err := s.store.Put(ctx, key, f.Body, f.Size, f.ContentType); err != nil {
			s.Discard(ctx, stored)
			return nil, appErrors.Internal(err, "failed to store attachment")
		}
		stored = append(stored, models.Attachment{Name: name, Key: key, ContentType: f.ContentType, Size: f.Size})
	}
	return stored, nil
}

// Discard deletes stored attachments, logging failures.
func (s *AttachmentService) Discard(ctx context.Context, attachments []models.Attachment) {
	for _, a := range attachments {
		if err := s.store.Delete(ctx, a.Key); err != nil {
			s.logger.Warn("failed to discard attachment", zap.String("key", a.Key), zap.Error(err))
		}
	}
}

// Links returns signed download links for the comment's attachments.
func (s *AttachmentService) Links(comment models.Comment) []dto.AttachmentLink {
	if s == nil || s.signer == nil || len(comment.Attachments) == 0 {
		return nil
	}
	links := make([]dto.AttachmentLink, 0, len(comment.Attachments))
	for _, a := range comment.Attachments {
		token, expiresAt, err := s.signer.Generate(comment.ID, a.Key)
		if err != nil {
			s.logger.Warn("failed to sign attachment link", zap.String("key", a.Key), zap.Error(err))
			continue
		}
		links = append(links, dto.AttachmentLink{Name: a.Name, URL: s.baseURL + "/" + token, ExpiresAt: expiresAt})
	}
	return links
}

// Open resolves a download token to the stored file.
func (s *AttachmentService) Open(ctx context.Context, token string) (*AttachmentDownload, error) {
	commentID, key, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	comment, err := s.comments.Get(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load comment")
	}
	var attachment *models.Attachment
	for i := range comment.Attachments {
		if comment.Attachments[i].Key == key {
			attachment = &comment.Attachments[i]
			break
		}
	}
	if attachment == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	body, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Internal(err, "failed to open attachment")
	}
	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &AttachmentDownload{Body: body, Name: attachment.Name, ContentType: contentType, Size: attachment.Size}, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	name = strings.Trim(name, ".")
	if name == "" {
		return "file"
	}
	return name
}
