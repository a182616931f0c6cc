package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// GenerationRepositoryPG implements domain.GenerationRepository backed by PostgreSQL.
type GenerationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository creates a new generation repository.
func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{pool: pool}
}

const generationColumns = `id, product_url, product_image_url, status, current_step, payment_status, payment_intent_id, canvas_image_url, video_operation_name, video_url, error, created_at, updated_at`

// Create inserts a new generation record.
func (r *GenerationRepositoryPG) Create(ctx context.Context, gen *domain.Generation) error {
	query := `
INSERT INTO generations (id, product_url, product_image_url, status, payment_status, payment_intent_id)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, NULLIF($6, ''))
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		gen.ID,
		gen.ProductURL,
		gen.ProductImageURL,
		gen.Status,
		gen.PaymentStatus,
		gen.PaymentIntentID,
	)
	if err := row.Scan(&gen.CreatedAt, &gen.UpdatedAt); err != nil {
		return fmt.Errorf("%w: insert generation: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetByID fetches a generation by its identifier.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1;`
	gen, err := scanGeneration(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select generation: %v", domain.ErrPersistence, err)
	}
	return gen, nil
}

// Update applies a partial update and returns the refreshed record. Only
// fields set on the patch are written; updated_at is stamped on every call.
func (r *GenerationRepositoryPG) Update(ctx context.Context, id string, patch domain.GenerationPatch) (*domain.Generation, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.ProductImageURL != nil {
		add("product_image_url", *patch.ProductImageURL)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.CurrentStep != nil {
		add("current_step", *patch.CurrentStep)
	}
	if patch.PaymentStatus != nil {
		add("payment_status", *patch.PaymentStatus)
	}
	if patch.PaymentIntentID != nil {
		add("payment_intent_id", *patch.PaymentIntentID)
	}
	if patch.CanvasImageURL != nil {
		add("canvas_image_url", *patch.CanvasImageURL)
	}
	if patch.VideoOperationName != nil {
		add("video_operation_name", *patch.VideoOperationName)
	}
	if patch.VideoURL != nil {
		add("video_url", *patch.VideoURL)
	}
	if patch.Error != nil {
		add("error", *patch.Error)
	}

	query := `
UPDATE generations
SET ` + strings.Join(sets, ",\n    ") + `
WHERE id = $1
RETURNING ` + generationColumns + `;`

	gen, err := scanGeneration(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: update generation: %v", domain.ErrPersistence, err)
	}
	return gen, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*domain.Generation, error) {
	var (
		gen                domain.Generation
		productURL         *string
		productImageURL    *string
		currentStep        *string
		paymentIntentID    *string
		canvasImageURL     *string
		videoOperationName *string
		videoURL           *string
		errMsg             *string
	)
	if err := row.Scan(
		&gen.ID,
		&productURL,
		&productImageURL,
		&gen.Status,
		&currentStep,
		&gen.PaymentStatus,
		&paymentIntentID,
		&canvasImageURL,
		&videoOperationName,
		&videoURL,
		&errMsg,
		&gen.CreatedAt,
		&gen.UpdatedAt,
	); err != nil {
		return nil, err
	}
	gen.ProductURL = deref(productURL)
	gen.ProductImageURL = deref(productImageURL)
	gen.CurrentStep = domain.Step(deref(currentStep))
	gen.PaymentIntentID = deref(paymentIntentID)
	gen.CanvasImageURL = deref(canvasImageURL)
	gen.VideoOperationName = deref(videoOperationName)
	gen.VideoURL = deref(videoURL)
	gen.Error = deref(errMsg)
	return &gen, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
