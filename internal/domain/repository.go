package domain

import "context"

// GenerationRepository defines persistence for generation records.
type GenerationRepository interface {
	Create(ctx context.Context, gen *Generation) error
	GetByID(ctx context.Context, id string) (*Generation, error)
	Update(ctx context.Context, id string, patch GenerationPatch) (*Generation, error)
}

// GeneratedImageRepository handles persistence for extracted quadrant images.
type GeneratedImageRepository interface {
	Upsert(ctx context.Context, img *GeneratedImage) error
	ListByGenerationID(ctx context.Context, generationID string) ([]GeneratedImage, error)
}
