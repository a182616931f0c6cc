package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/providers/veo"
	"server/internal/storage"
)

// minReferenceImages is the number of extracted quadrants the video stage
// requires. The original image plus the first two quadrants (in canonical
// position order) are sent as style references.
const minReferenceImages = 2

// ScrapeResult is the output of the scraping stage.
type ScrapeResult struct {
	ImageURL string
	Data     []byte
	MimeType string
}

// Scrape extracts the product image from the generation's product page,
// fetches it, and records its URL on the generation.
func (c *Coordinator) Scrape(ctx context.Context, id string) (*ScrapeResult, error) {
	gen, err := c.generations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen.ProductURL == "" {
		return nil, fmt.Errorf("%w: generation has no product URL to scrape", domain.ErrValidation)
	}

	if err := c.enterStep(ctx, id, domain.StepScraping); err != nil {
		return nil, err
	}

	imageURL, err := c.scraper.ScrapeProductImage(ctx, gen.ProductURL)
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepScraping, err)
	}

	data, mimeType, err := c.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepScraping, err)
	}

	if _, err := c.generations.Update(ctx, id, domain.GenerationPatch{
		ProductImageURL: &imageURL,
		Error:           clearedError(),
	}); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("generation_id", id).
		Str("image_url", imageURL).
		Msg("pipeline: scraped product image")

	return &ScrapeResult{ImageURL: imageURL, Data: data, MimeType: mimeType}, nil
}

// CanvasResult is the output of the canvas generation stage.
type CanvasResult struct {
	CanvasURL string
	Data      []byte
}

// GenerateCanvas derives the 2x2 composite reference canvas from the source
// image. The source may be supplied by the caller; otherwise it is resolved
// from the generation's product image URL.
func (c *Coordinator) GenerateCanvas(ctx context.Context, id string, source []byte, mimeType string) (*CanvasResult, error) {
	gen, err := c.generations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(source) == 0 {
		if gen.ProductImageURL == "" {
			return nil, fmt.Errorf("%w: no source image available for canvas generation", domain.ErrValidation)
		}
		source, mimeType, err = c.loadImage(ctx, gen.ProductImageURL)
		if err != nil {
			return nil, c.failStage(ctx, id, domain.StepGeneratingCanvas, err)
		}
	}

	if err := c.enterStep(ctx, id, domain.StepGeneratingCanvas); err != nil {
		return nil, err
	}

	canvasData, err := c.canvas.GenerateCanvas(ctx, source, mimeType)
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepGeneratingCanvas, err)
	}

	canvasURL, err := c.store.Put(ctx, storage.GenerationKey(id, "canvas.png"), canvasData, "image/png")
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepGeneratingCanvas, err)
	}

	if _, err := c.generations.Update(ctx, id, domain.GenerationPatch{
		CanvasImageURL: &canvasURL,
		Error:          clearedError(),
	}); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("generation_id", id).
		Str("canvas_url", canvasURL).
		Msg("pipeline: generated canvas")

	return &CanvasResult{CanvasURL: canvasURL, Data: canvasData}, nil
}

// QuadrantResult is the output of one quadrant extraction.
type QuadrantResult struct {
	Position domain.Position
	ImageURL string
	Data     []byte
}

// ExtractQuadrant cuts one quadrant out of the canvas, stores it, and upserts
// the generation's image row for that position. Re-extracting a position
// replaces the prior row rather than duplicating it.
func (c *Coordinator) ExtractQuadrant(ctx context.Context, id string, position domain.Position, canvas []byte) (*QuadrantResult, error) {
	if !domain.ValidPosition(position) {
		return nil, fmt.Errorf("%w: invalid position %q", domain.ErrValidation, position)
	}

	gen, err := c.generations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(canvas) == 0 {
		if gen.CanvasImageURL == "" {
			return nil, fmt.Errorf("%w: generation has no canvas image", domain.ErrValidation)
		}
		canvas, _, err = c.loadImage(ctx, gen.CanvasImageURL)
		if err != nil {
			return nil, c.failStage(ctx, id, domain.StepExtractingImages, err)
		}
	}

	if err := c.enterStep(ctx, id, domain.StepExtractingImages); err != nil {
		return nil, err
	}

	data, err := c.quadrants.ExtractQuadrant(ctx, canvas, position)
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepExtractingImages, err)
	}

	imageURL, err := c.store.Put(ctx, storage.GenerationKey(id, string(position)+".png"), data, "image/png")
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepExtractingImages, err)
	}

	img := &domain.GeneratedImage{
		ID:           uuid.NewString(),
		GenerationID: id,
		Position:     position,
		ImageURL:     imageURL,
	}
	if err := c.images.Upsert(ctx, img); err != nil {
		return nil, err
	}
	if _, err := c.generations.Update(ctx, id, domain.GenerationPatch{Error: clearedError()}); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("generation_id", id).
		Str("position", string(position)).
		Str("image_url", imageURL).
		Msg("pipeline: extracted quadrant")

	return &QuadrantResult{Position: position, ImageURL: imageURL, Data: data}, nil
}

// StartVideoResult carries the operation handle for subsequent polling.
type StartVideoResult struct {
	OperationName string
}

// StartVideo submits the video generation request, conditioned on the
// original product image and the extracted quadrants.
func (c *Coordinator) StartVideo(ctx context.Context, id string) (*StartVideoResult, error) {
	gen, err := c.generations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen.ProductImageURL == "" {
		return nil, fmt.Errorf("%w: generation has no product image", domain.ErrValidation)
	}

	images, err := c.images.ListByGenerationID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(images) < minReferenceImages {
		return nil, fmt.Errorf("%w: at least %d extracted images are required for video generation", domain.ErrValidation, minReferenceImages)
	}
	domain.SortImagesByPosition(images)

	originalData, originalMime, err := c.loadImage(ctx, gen.ProductImageURL)
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepGeneratingVideo, err)
	}
	original := veo.ReferenceImage{Data: originalData, MimeType: originalMime}

	references := make([]veo.ReferenceImage, 0, minReferenceImages)
	for _, img := range images[:minReferenceImages] {
		data, mime, err := c.loadImage(ctx, img.ImageURL)
		if err != nil {
			return nil, c.failStage(ctx, id, domain.StepGeneratingVideo, err)
		}
		references = append(references, veo.ReferenceImage{Data: data, MimeType: mime})
	}

	if err := c.enterStep(ctx, id, domain.StepGeneratingVideo); err != nil {
		return nil, err
	}

	operationName, err := c.video.Start(ctx, original, references)
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepGeneratingVideo, err)
	}

	if _, err := c.generations.Update(ctx, id, domain.GenerationPatch{
		VideoOperationName: &operationName,
		Error:              clearedError(),
	}); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("generation_id", id).
		Str("operation", operationName).
		Msg("pipeline: started video generation")

	return &StartVideoResult{OperationName: operationName}, nil
}

// PollVideoResult is the normalized outcome of one poll of the video
// operation. Exactly one of VideoURL and Error is set when Done is true.
type PollVideoResult struct {
	Done     bool
	VideoURL string
	Error    string
}

// PollVideo queries the long-running operation once. A non-terminal response
// mutates nothing. A terminal failure is recorded on the generation. A
// terminal success downloads the artifact, stores it, and completes the
// generation in a single record update.
func (c *Coordinator) PollVideo(ctx context.Context, id string) (*PollVideoResult, error) {
	gen, err := c.generations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen.VideoOperationName == "" {
		return nil, fmt.Errorf("%w: generation has no video operation to poll", domain.ErrValidation)
	}

	status, err := c.video.Poll(ctx, gen.VideoOperationName)
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepGeneratingVideo, err)
	}

	if !status.Done {
		return &PollVideoResult{Done: false}, nil
	}

	if status.Error != "" {
		failed := domain.StatusFailed
		if _, err := c.generations.Update(ctx, id, domain.GenerationPatch{
			Status: &failed,
			Error:  &status.Error,
		}); err != nil {
			return nil, err
		}
		c.logger.Warn().
			Str("generation_id", id).
			Str("cause", status.Error).
			Msg("pipeline: video generation failed")
		return &PollVideoResult{Done: true, Error: status.Error}, nil
	}

	data, err := c.video.Download(ctx, status.VideoURI)
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepGeneratingVideo, err)
	}

	videoURL, err := c.store.Put(ctx, storage.GenerationKey(id, "product-360.mp4"), data, "video/mp4")
	if err != nil {
		return nil, c.failStage(ctx, id, domain.StepGeneratingVideo, err)
	}

	completed := domain.StatusCompleted
	if _, err := c.generations.Update(ctx, id, domain.GenerationPatch{
		VideoURL: &videoURL,
		Status:   &completed,
		Error:    clearedError(),
	}); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("generation_id", id).
		Str("video_url", videoURL).
		Msg("pipeline: video generation completed")

	return &PollVideoResult{Done: true, VideoURL: videoURL}, nil
}

// loadImage resolves an image URL to bytes. URLs that map back to one of our
// storage keys are read from the object store; anything else is fetched over
// HTTP.
func (c *Coordinator) loadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	key := c.store.ResolveKey(imageURL)
	if key != imageURL {
		data, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, "", err
		}
		return data, storage.MIMETypeForKey(key), nil
	}
	return c.fetcher.FetchImage(ctx, imageURL)
}
