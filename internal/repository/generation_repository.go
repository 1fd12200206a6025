package repository

import (
	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/internal/models"
)

// GenerationRepository stores AI generation records.
type GenerationRepository struct {
	*EntityRepository[models.Generation]
}

// NewGenerationRepository constructs a generation repository.
func NewGenerationRepository(store BlobStore, prefix string, logger *zap.Logger) *GenerationRepository {
	col := NewCollection[models.Generation](store, CollectionKey(prefix, CollectionGenerations), logger)
	return &GenerationRepository{EntityRepository: NewEntityRepository(col)}
}
