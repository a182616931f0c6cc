package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/pipeline"
)

type generationResponse struct {
	ID                 string     `json:"id"`
	ProductURL         string     `json:"productUrl,omitempty"`
	ProductImageURL    string     `json:"productImageUrl,omitempty"`
	Status             string     `json:"status"`
	CurrentStep        string     `json:"currentStep,omitempty"`
	PaymentStatus      string     `json:"paymentStatus"`
	PaymentIntentID    string     `json:"paymentIntentId,omitempty"`
	CanvasImageURL     string     `json:"canvasImageUrl,omitempty"`
	VideoOperationName string     `json:"videoOperationName,omitempty"`
	VideoURL           string     `json:"videoUrl,omitempty"`
	Error              string     `json:"error,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type generatedImageResponse struct {
	ID           string    `json:"id"`
	GenerationID string    `json:"generationId"`
	Position     string    `json:"position"`
	ImageURL     string    `json:"imageUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toGenerationResponse(gen *domain.Generation) generationResponse {
	return generationResponse{
		ID:                 gen.ID,
		ProductURL:         gen.ProductURL,
		ProductImageURL:    gen.ProductImageURL,
		Status:             string(gen.Status),
		CurrentStep:        string(gen.CurrentStep),
		PaymentStatus:      string(gen.PaymentStatus),
		PaymentIntentID:    gen.PaymentIntentID,
		CanvasImageURL:     gen.CanvasImageURL,
		VideoOperationName: gen.VideoOperationName,
		VideoURL:           gen.VideoURL,
		Error:              gen.Error,
		CreatedAt:          gen.CreatedAt,
		UpdatedAt:          gen.UpdatedAt,
	}
}

func toImageResponses(images []domain.GeneratedImage) []generatedImageResponse {
	out := make([]generatedImageResponse, len(images))
	for i, img := range images {
		out[i] = generatedImageResponse{
			ID:           img.ID,
			GenerationID: img.GenerationID,
			Position:     string(img.Position),
			ImageURL:     img.ImageURL,
			CreatedAt:    img.CreatedAt,
		}
	}
	return out
}

type createGenerationRequest struct {
	ProductURL      string `json:"productUrl" validate:"omitempty,url"`
	ProductImageURL string `json:"productImageUrl" validate:"omitempty,url"`
}

// GenerationsCreate handles POST /v1/generations.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	var req createGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := a.Validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid URL format")
		return
	}

	gen, err := a.Pipeline.Create(r.Context(), pipeline.CreateParams{
		ProductURL:      req.ProductURL,
		ProductImageURL: req.ProductImageURL,
	})
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusCreated, map[string]any{
		"success":    true,
		"generation": toGenerationResponse(gen),
	})
}

// GenerationsGet handles GET /v1/generations/{id}.
func (a *App) GenerationsGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "id is required")
		return
	}

	detail, err := a.Pipeline.Get(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"generation": toGenerationResponse(detail.Generation),
		"images":     toImageResponses(detail.Images),
	})
}

type updateGenerationRequest struct {
	Status          *string `json:"status"`
	PaymentStatus   *string `json:"paymentStatus"`
	PaymentIntentID *string `json:"paymentIntentId"`
}

// GenerationsUpdate handles PATCH /v1/generations/{id}.
func (a *App) GenerationsUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req updateGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	params := pipeline.UpdateMetaParams{PaymentIntentID: req.PaymentIntentID}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		params.Status = &status
	}
	if req.PaymentStatus != nil {
		paymentStatus := domain.PaymentStatus(*req.PaymentStatus)
		params.PaymentStatus = &paymentStatus
	}

	gen, err := a.Pipeline.UpdateMeta(r.Context(), id, params)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"success":    true,
		"generation": toGenerationResponse(gen),
	})
}

// GenerationsScrape handles POST /v1/generations/{id}/scrape.
func (a *App) GenerationsScrape(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "id is required")
		return
	}

	result, err := a.Pipeline.Scrape(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"success":  true,
		"imageUrl": result.ImageURL,
		"base64":   base64.StdEncoding.EncodeToString(result.Data),
		"mimeType": result.MimeType,
	})
}

type generateCanvasRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

// GenerationsCanvas handles POST /v1/generations/{id}/canvas.
func (a *App) GenerationsCanvas(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req generateCanvasRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var source []byte
	if req.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			a.error(w, http.StatusBadRequest, "imageBase64 is not valid base64")
			return
		}
		source = decoded
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	result, err := a.Pipeline.GenerateCanvas(r.Context(), id, source, mimeType)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"success":      true,
		"canvasUrl":    result.CanvasURL,
		"canvasBase64": base64.StdEncoding.EncodeToString(result.Data),
	})
}

type extractQuadrantRequest struct {
	Position     string `json:"position" validate:"required"`
	CanvasBase64 string `json:"canvasBase64"`
}

// GenerationsQuadrant handles POST /v1/generations/{id}/quadrants.
func (a *App) GenerationsQuadrant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req extractQuadrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := a.Validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "position is required")
		return
	}

	var canvas []byte
	if req.CanvasBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.CanvasBase64)
		if err != nil {
			a.error(w, http.StatusBadRequest, "canvasBase64 is not valid base64")
			return
		}
		canvas = decoded
	}

	result, err := a.Pipeline.ExtractQuadrant(r.Context(), id, domain.Position(req.Position), canvas)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"success":     true,
		"position":    string(result.Position),
		"imageUrl":    result.ImageURL,
		"imageBase64": base64.StdEncoding.EncodeToString(result.Data),
	})
}

// GenerationsVideoStart handles POST /v1/generations/{id}/video.
func (a *App) GenerationsVideoStart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "id is required")
		return
	}

	result, err := a.Pipeline.StartVideo(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"success":       true,
		"operationName": result.OperationName,
	})
}

// GenerationsVideoStatus handles GET /v1/generations/{id}/video/status.
func (a *App) GenerationsVideoStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "id is required")
		return
	}

	result, err := a.Pipeline.PollVideo(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}

	if !result.Done {
		a.json(w, http.StatusOK, map[string]any{
			"done":    false,
			"message": "Video is still being generated...",
		})
		return
	}

	if result.Error != "" {
		a.json(w, http.StatusOK, map[string]any{
			"done":  true,
			"error": result.Error,
		})
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"done":     true,
		"videoUrl": result.VideoURL,
	})
}

// GenerationsSourceImage handles GET /v1/generations/{id}/source-image.
func (a *App) GenerationsSourceImage(w http.ResponseWriter, r *http.Request) {
	a.imagePayload(w, r, a.Pipeline.SourceImage)
}

// GenerationsCanvasImage handles GET /v1/generations/{id}/canvas-image.
func (a *App) GenerationsCanvasImage(w http.ResponseWriter, r *http.Request) {
	a.imagePayload(w, r, a.Pipeline.CanvasImage)
}

func (a *App) imagePayload(w http.ResponseWriter, r *http.Request, load func(ctx context.Context, id string) (*pipeline.ImagePayload, error)) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "id is required")
		return
	}

	payload, err := load(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"success":  true,
		"imageUrl": payload.URL,
		"base64":   base64.StdEncoding.EncodeToString(payload.Data),
		"mimeType": payload.MimeType,
	})
}
