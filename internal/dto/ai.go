package dto

import (
	"time"

	"github.com/noah-isme/smart-student-api/internal/models"
)

// GenerationRequest captures POST /ai/{kind} payload.
type GenerationRequest struct {
	Topic      string         `json:"topic" validate:"required"`
	SourceText string         `json:"sourceText"`
	Language   string         `json:"language"`
	Options    map[string]any `json:"options"`
}

// GenerationResponse exposes a generation record.
type GenerationResponse struct {
	ID         string                   `json:"id"`
	Kind       string                   `json:"kind"`
	Status     models.GenerationStatus  `json:"status"`
	Result     *models.GenerationResult `json:"result,omitempty"`
	Error      string                   `json:"error,omitempty"`
	CreatedAt  time.Time                `json:"createdAt"`
	FinishedAt *time.Time               `json:"finishedAt,omitempty"`
}

// NewGenerationResponse maps the stored record.
func NewGenerationResponse(g models.Generation) GenerationResponse {
	return GenerationResponse{
		ID:         g.ID,
		Kind:       g.Kind,
		Status:     g.Status,
		Result:     g.Result,
		Error:      g.Error,
		CreatedAt:  g.CreatedAt,
		FinishedAt: g.FinishedAt,
	}
}
