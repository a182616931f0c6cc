package handlers

import (
	"io"
	"net/http"

	"server/internal/pipeline"
)

// UploadsCreate handles POST /v1/uploads: a multipart source-image upload
// used instead of scraping when the caller already has the product image.
func (a *App) UploadsCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "File too large or malformed multipart body")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "Failed to read image file")
		return
	}

	result, err := a.Pipeline.Upload(r.Context(), pipeline.UploadParams{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusCreated, map[string]any{
		"success":  true,
		"uploadId": result.UploadID,
		"imageUrl": result.ImageURL,
	})
}
