package pipeline

import (
	"context"
	"fmt"
	"strings"

	"server/internal/domain"
	"server/internal/storage"
)

// allowedUploadTypes is the closed set of image types accepted for direct
// source-image uploads.
var allowedUploadTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/avif": "avif",
}

// ImagePayload is a stored artifact resolved back into raw bytes.
type ImagePayload struct {
	URL      string
	Data     []byte
	MimeType string
}

// SourceImage reads the generation's product image back out of storage.
func (c *Coordinator) SourceImage(ctx context.Context, id string) (*ImagePayload, error) {
	gen, err := c.generations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen.ProductImageURL == "" {
		return nil, fmt.Errorf("%w: generation has no product image", domain.ErrValidation)
	}
	return c.readStored(ctx, gen.ProductImageURL)
}

// CanvasImage reads the generation's composite canvas back out of storage.
func (c *Coordinator) CanvasImage(ctx context.Context, id string) (*ImagePayload, error) {
	gen, err := c.generations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gen.CanvasImageURL == "" {
		return nil, fmt.Errorf("%w: generation has no canvas image", domain.ErrValidation)
	}
	return c.readStored(ctx, gen.CanvasImageURL)
}

// UploadParams describes a caller-supplied source image.
type UploadParams struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult identifies the stored upload.
type UploadResult struct {
	UploadID string
	ImageURL string
}

// Upload validates and stores a directly uploaded product image, returning
// its public URL for use as a generation's productImageUrl.
func (c *Coordinator) Upload(ctx context.Context, params UploadParams) (*UploadResult, error) {
	if len(params.Data) == 0 {
		return nil, fmt.Errorf("%w: no image data provided", domain.ErrValidation)
	}

	contentType := strings.ToLower(strings.TrimSpace(params.ContentType))
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: invalid file type %q, allowed: JPEG, PNG, WebP, GIF, AVIF", domain.ErrValidation, params.ContentType)
	}

	if fromName := extensionOf(params.Filename); fromName != "" {
		ext = fromName
	}

	uploadID, key := storage.UploadKey(ext)
	imageURL, err := c.store.Put(ctx, key, params.Data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	c.logger.Info().
		Str("upload_id", uploadID).
		Str("image_url", imageURL).
		Int("bytes", len(params.Data)).
		Msg("pipeline: stored uploaded image")

	return &UploadResult{UploadID: uploadID, ImageURL: imageURL}, nil
}

func (c *Coordinator) readStored(ctx context.Context, imageURL string) (*ImagePayload, error) {
	key := c.store.ResolveKey(imageURL)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	return &ImagePayload{
		URL:      imageURL,
		Data:     data,
		MimeType: storage.MIMETypeForKey(key),
	}, nil
}

func extensionOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	ext := strings.ToLower(filename[idx+1:])
	for _, allowed := range allowedUploadTypes {
		if ext == allowed || (ext == "jpeg" && allowed == "jpg") {
			return ext
		}
	}
	return ""
}
