package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/providers/veo"
)

// Scraper extracts the main product image URL from a product page.
type Scraper interface {
	ScrapeProductImage(ctx context.Context, pageURL string) (string, error)
}

// ImageFetcher downloads an image over HTTP.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (data []byte, mimeType string, err error)
}

// CanvasGenerator composites a source image into the 2x2 reference canvas.
type CanvasGenerator interface {
	GenerateCanvas(ctx context.Context, imageData []byte, mimeType string) ([]byte, error)
}

// QuadrantExtractor cuts one labeled quadrant back out of the canvas.
type QuadrantExtractor interface {
	ExtractQuadrant(ctx context.Context, canvasData []byte, position domain.Position) ([]byte, error)
}

// VideoGenerator drives the asynchronous video provider: start, poll, download.
type VideoGenerator interface {
	Start(ctx context.Context, original veo.ReferenceImage, references []veo.ReferenceImage) (string, error)
	Poll(ctx context.Context, operationName string) (*veo.PollResult, error)
	Download(ctx context.Context, videoURI string) ([]byte, error)
}

// ObjectStore persists binary artifacts and maps issued URLs back to keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	ResolveKey(url string) string
}

// Deps carries everything the coordinator needs. All collaborators are
// constructed once at process start and injected here; the coordinator holds
// no hidden global state.
type Deps struct {
	Generations domain.GenerationRepository
	Images      domain.GeneratedImageRepository
	Scraper     Scraper
	Fetcher     ImageFetcher
	Canvas      CanvasGenerator
	Quadrants   QuadrantExtractor
	Video       VideoGenerator
	Store       ObjectStore
	Logger      infra.Logger
}

// Coordinator sequences the generation pipeline. Each exported method is one
// independently invoked stage: load the record, validate preconditions, write
// the step being entered, call the provider, persist the outcome. Progression
// between stages is entirely caller-driven; there is no internal scheduler
// and no automatic retry; a failed stage is re-run by calling it again.
type Coordinator struct {
	generations domain.GenerationRepository
	images      domain.GeneratedImageRepository
	scraper     Scraper
	fetcher     ImageFetcher
	canvas      CanvasGenerator
	quadrants   QuadrantExtractor
	video       VideoGenerator
	store       ObjectStore
	logger      infra.Logger
}

// NewCoordinator wires up a coordinator from its dependencies.
func NewCoordinator(deps Deps) *Coordinator {
	return &Coordinator{
		generations: deps.Generations,
		images:      deps.Images,
		scraper:     deps.Scraper,
		fetcher:     deps.Fetcher,
		canvas:      deps.Canvas,
		quadrants:   deps.Quadrants,
		video:       deps.Video,
		store:       deps.Store,
		logger:      deps.Logger,
	}
}

// CreateParams describes a new generation. At least one of the two source
// references must be present.
type CreateParams struct {
	ProductURL      string
	ProductImageURL string
}

// Create validates the source references and persists a new generation in
// payment_required state.
func (c *Coordinator) Create(ctx context.Context, params CreateParams) (*domain.Generation, error) {
	productURL := strings.TrimSpace(params.ProductURL)
	productImageURL := strings.TrimSpace(params.ProductImageURL)

	if productURL == "" && productImageURL == "" {
		return nil, fmt.Errorf("%w: productUrl or productImageUrl is required", domain.ErrValidation)
	}
	if productURL != "" {
		if err := domain.ValidateProductURL(productURL); err != nil {
			return nil, fmt.Errorf("%w: invalid product URL", domain.ErrValidation)
		}
	}

	gen := &domain.Generation{
		ID:              uuid.NewString(),
		ProductURL:      productURL,
		ProductImageURL: productImageURL,
		Status:          domain.StatusPaymentRequired,
		PaymentStatus:   domain.PaymentStatusPending,
	}
	if err := c.generations.Create(ctx, gen); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("generation_id", gen.ID).
		Bool("has_product_url", productURL != "").
		Msg("pipeline: generation created")

	return gen, nil
}

// Detail bundles a generation with its extracted quadrant images.
type Detail struct {
	Generation *domain.Generation
	Images     []domain.GeneratedImage
}

// Get returns the generation and its quadrant images.
func (c *Coordinator) Get(ctx context.Context, id string) (*Detail, error) {
	gen, err := c.generations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	images, err := c.images.ListByGenerationID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Generation: gen, Images: images}, nil
}

// UpdateMetaParams carries the externally settable metadata fields.
type UpdateMetaParams struct {
	Status          *domain.Status
	PaymentStatus   *domain.PaymentStatus
	PaymentIntentID *string
}

// UpdateMeta applies external status/payment updates after validating the
// closed enums.
func (c *Coordinator) UpdateMeta(ctx context.Context, id string, params UpdateMetaParams) (*domain.Generation, error) {
	if params.Status != nil && !domain.ValidStatus(*params.Status) {
		return nil, fmt.Errorf("%w: invalid status", domain.ErrValidation)
	}
	if params.PaymentStatus != nil && !domain.ValidPaymentStatus(*params.PaymentStatus) {
		return nil, fmt.Errorf("%w: invalid payment status", domain.ErrValidation)
	}
	return c.generations.Update(ctx, id, domain.GenerationPatch{
		Status:          params.Status,
		PaymentStatus:   params.PaymentStatus,
		PaymentIntentID: params.PaymentIntentID,
	})
}

// enterStep records the stage being entered before the provider call runs, so
// a crash mid-stage leaves visible evidence of the last attempted stage.
func (c *Coordinator) enterStep(ctx context.Context, id string, step domain.Step) error {
	s := step
	if _, err := c.generations.Update(ctx, id, domain.GenerationPatch{CurrentStep: &s}); err != nil {
		return err
	}
	return nil
}

// failStage records a provider failure on the generation and returns the
// wrapped error. The durable record and the caller both always see the
// failure; prior stage outputs are left in place so the stage can be re-run.
func (c *Coordinator) failStage(ctx context.Context, id string, step domain.Step, cause error) error {
	msg := cause.Error()
	failed := domain.StatusFailed
	if _, err := c.generations.Update(ctx, id, domain.GenerationPatch{Status: &failed, Error: &msg}); err != nil {
		c.logger.Error().
			Err(err).
			Str("generation_id", id).
			Str("step", string(step)).
			Msg("pipeline: failed to record stage failure")
	}
	c.logger.Warn().
		Str("generation_id", id).
		Str("step", string(step)).
		Str("cause", msg).
		Msg("pipeline: stage failed")
	return fmt.Errorf("%w: %v", domain.ErrProviderFailure, cause)
}

// clearedError yields the patch value that wipes a stale error message once a
// subsequent stage succeeds.
func clearedError() *string {
	empty := ""
	return &empty
}
