package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/pipeline"
)

// Pipeline is the coordinator surface the handlers consume.
type Pipeline interface {
	Create(ctx context.Context, params pipeline.CreateParams) (*domain.Generation, error)
	Get(ctx context.Context, id string) (*pipeline.Detail, error)
	UpdateMeta(ctx context.Context, id string, params pipeline.UpdateMetaParams) (*domain.Generation, error)
	Scrape(ctx context.Context, id string) (*pipeline.ScrapeResult, error)
	GenerateCanvas(ctx context.Context, id string, source []byte, mimeType string) (*pipeline.CanvasResult, error)
	ExtractQuadrant(ctx context.Context, id string, position domain.Position, canvas []byte) (*pipeline.QuadrantResult, error)
	StartVideo(ctx context.Context, id string) (*pipeline.StartVideoResult, error)
	PollVideo(ctx context.Context, id string) (*pipeline.PollVideoResult, error)
	SourceImage(ctx context.Context, id string) (*pipeline.ImagePayload, error)
	CanvasImage(ctx context.Context, id string) (*pipeline.ImagePayload, error)
	Upload(ctx context.Context, params pipeline.UploadParams) (*pipeline.UploadResult, error)
}

// App bundles the dependencies shared by all handlers.
type App struct {
	Pipeline       Pipeline
	Logger         infra.Logger
	Validate       *validator.Validate
	MaxUploadBytes int64
}

// NewApp constructs the handler container.
func NewApp(p Pipeline, logger infra.Logger, maxUploadBytes int64) *App {
	return &App{
		Pipeline:       p,
		Logger:         logger,
		Validate:       validator.New(),
		MaxUploadBytes: maxUploadBytes,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

// fail maps domain errors onto HTTP status codes and writes the structured
// error payload.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "Generation not found")
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrProviderFailure):
		a.error(w, http.StatusBadGateway, err.Error())
	default:
		a.Logger.Error().Err(err).Msg("handlers: internal error")
		a.error(w, http.StatusInternalServerError, "internal error")
	}
}
