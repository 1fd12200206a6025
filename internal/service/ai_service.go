package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/dto"
	"github.com/noah-isme/smart-student-api/internal/models"
	"github.com/noah-isme/smart-student-api/internal/repository"
	"github.com/noah-isme/smart-student-api/pkg/aiclient"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/jobs"
)

type generationRepository interface {
	List(ctx context.Context) ([]models.Generation, error)
	Get(ctx context.Context, id string) (models.Generation, error)
	Put(ctx context.Context, g models.Generation) error
}

type contentGenerator interface {
	Generate(ctx context.Context, req aiclient.Request) (*aiclient.Result, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// AIService proxies content generation to the external service through the job queue.
type AIService struct {
	repo      generationRepository
	client    contentGenerator
	queue     jobDispatcher
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewAIService constructs the service. The queue is attached separately
// because the queue's handler is the service itself.
func NewAIService(repo generationRepository, client contentGenerator, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, timeout time.Duration) *AIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AIService{repo: repo, client: client, validator: validate, metrics: metrics, logger: logger, timeout: timeout, now: time.Now}
}

// AttachQueue sets the dispatcher used by Request.
func (s *AIService) AttachQueue(queue jobDispatcher) {
	s.queue = queue
}

// ValidKind reports whether kind is a supported generation kind.
func ValidKind(kind string) bool {
	switch kind {
	case aiclient.KindSummary, aiclient.KindQuiz, aiclient.KindMindMap:
		return true
	}
	return false
}

// Request persists a pending generation and queues it.
func (s *AIService) Request(ctx context.Context, viewer models.Viewer, kind string, req dto.GenerationRequest) (*dto.GenerationResponse, error) {
	if !ValidKind(kind) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown generation kind")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	gen := models.Generation{
		ID:     uuid.NewString(),
		Kind:   kind,
		Status: models.GenerationPending,
		Request: models.GenerationRequest{
			Topic:      req.Topic,
			SourceText: req.SourceText,
			Language:   req.Language,
			Options:    req.Options,
		},
		RequestedBy: viewer.Username,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Put(ctx, gen); err != nil {
		return nil, appErrors.Internal(err, "failed to store generation")
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "generation queue unavailable")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: gen.ID, Type: kind}); err != nil {
		s.fail(ctx, gen, err)
		return nil, appErrors.Internal(err, "failed to enqueue generation")
	}

	resp := dto.NewGenerationResponse(gen)
	return &resp, nil
}

// Get returns a generation to its requester or an admin.
func (s *AIService) Get(ctx context.Context, viewer models.Viewer, id string) (*dto.GenerationResponse, error) {
	gen, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation not found")
		}
		return nil, appErrors.Internal(err, "failed to load generation")
	}
	if gen.RequestedBy != viewer.Username && !viewer.Role.Equal(models.RoleAdmin) {
		return nil, appErrors.ErrForbidden
	}
	resp := dto.NewGenerationResponse(gen)
	return &resp, nil
}

// Process is the queue handler. Failures are recorded on the generation and
// never returned, so the queue does not retry.
func (s *AIService) Process(ctx context.Context, job jobs.Job) error {
	gen, err := s.repo.Get(ctx, job.ID)
	if err != nil {
		s.logger.Warn("generation record missing", zap.String("generation_id", job.ID), zap.Error(err))
		return nil
	}
	if gen.Status == models.GenerationCompleted || gen.Status == models.GenerationFailed {
		return nil
	}

	gen.Status = models.GenerationRunning
	if err := s.repo.Put(ctx, gen); err != nil {
		s.logger.Warn("failed to mark generation running", zap.String("generation_id", gen.ID), zap.Error(err))
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.client.Generate(callCtx, aiclient.Request{
		Kind:       gen.Kind,
		Topic:      gen.Request.Topic,
		SourceText: gen.Request.SourceText,
		Language:   gen.Request.Language,
		Options:    gen.Request.Options,
	})
	if err != nil {
		s.fail(ctx, gen, err)
		return nil
	}

	finished := s.now().UTC()
	gen.Status = models.GenerationCompleted
	gen.Result = &models.GenerationResult{Text: result.Text, ImageData: result.ImageData}
	gen.FinishedAt = &finished
	if err := s.repo.Put(ctx, gen); err != nil {
		s.logger.Error("failed to store generation result", zap.String("generation_id", gen.ID), zap.Error(err))
		return nil
	}
	s.metrics.GenerationFinished(gen.Kind, gen.Status)
	s.logger.Info("generation completed", zap.String("generation_id", gen.ID), zap.String("kind", gen.Kind))
	return nil
}

// RecoverPending requeues generations left unfinished by a previous process.
func (s *AIService) RecoverPending(ctx context.Context) {
	if s.queue == nil {
		return
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover pending generations", "error", err)
		return
	}
	for _, gen := range all {
		if gen.Status != models.GenerationPending && gen.Status != models.GenerationRunning {
			continue
		}
		if err := s.queue.Enqueue(jobs.Job{ID: gen.ID, Type: gen.Kind}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue generation", "generation_id", gen.ID, "error", err)
		}
	}
}

func (s *AIService) fail(ctx context.Context, gen models.Generation, cause error) {
	s.logger.Error("generation failed", zap.String("generation_id", gen.ID), zap.String("kind", gen.Kind), zap.Error(cause))
	finished := s.now().UTC()
	gen.Status = models.GenerationFailed
	gen.Error = models.GenerationFailedMessage
	gen.FinishedAt = &finished
	if err := s.repo.Put(ctx, gen); err != nil {
		s.logger.Error("failed to store generation failure", zap.String("generation_id", gen.ID), zap.Error(err))
	}
	s.metrics.GenerationFinished(gen.Kind, gen.Status)
}
