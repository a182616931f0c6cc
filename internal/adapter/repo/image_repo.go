package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// GeneratedImageRepositoryPG implements domain.GeneratedImageRepository using PostgreSQL.
type GeneratedImageRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGeneratedImageRepository constructs a new quadrant image repository.
func NewGeneratedImageRepository(pool *pgxpool.Pool) *GeneratedImageRepositoryPG {
	return &GeneratedImageRepositoryPG{pool: pool}
}

// Upsert inserts the quadrant row, replacing the image URL when the
// (generation_id, position) pair already exists.
func (r *GeneratedImageRepositoryPG) Upsert(ctx context.Context, img *domain.GeneratedImage) error {
	query := `
INSERT INTO generated_images (id, generation_id, position, image_url)
VALUES ($1, $2, $3, $4)
ON CONFLICT (generation_id, position)
DO UPDATE SET image_url = EXCLUDED.image_url
RETURNING id, created_at;
`
	row := r.pool.QueryRow(ctx, query, img.ID, img.GenerationID, img.Position, img.ImageURL)
	if err := row.Scan(&img.ID, &img.CreatedAt); err != nil {
		return fmt.Errorf("%w: upsert generated image: %v", domain.ErrPersistence, err)
	}
	return nil
}

// ListByGenerationID returns all quadrant images belonging to the generation.
func (r *GeneratedImageRepositoryPG) ListByGenerationID(ctx context.Context, generationID string) ([]domain.GeneratedImage, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, generation_id, position, image_url, created_at
FROM generated_images
WHERE generation_id = $1
ORDER BY created_at ASC;
`, generationID)
	if err != nil {
		return nil, fmt.Errorf("%w: select generated images: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var images []domain.GeneratedImage
	for rows.Next() {
		var img domain.GeneratedImage
		if err := rows.Scan(&img.ID, &img.GenerationID, &img.Position, &img.ImageURL, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan generated image: %v", domain.ErrPersistence, err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate generated images: %v", domain.ErrPersistence, err)
	}
	return images, nil
}
