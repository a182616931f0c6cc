package domain

import (
	"net/url"
	"strings"
	"time"
)

// Status enumerates generation lifecycle states.
type Status string

const (
	StatusPending         Status = "pending"
	StatusPaymentRequired Status = "payment_required"
	StatusProcessing      Status = "processing"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// Step enumerates pipeline stages a generation moves through.
type Step string

const (
	StepScraping         Step = "scraping"
	StepGeneratingCanvas Step = "generating_canvas"
	StepExtractingImages Step = "extracting_images"
	StepGeneratingVideo  Step = "generating_video"
)

// PaymentStatus tracks payment independently from the pipeline status.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// Generation encapsulates one end-to-end showcase-video job, from source
// image acquisition through the final stored artifact.
type Generation struct {
	ID                 string
	ProductURL         string
	ProductImageURL    string
	Status             Status
	CurrentStep        Step
	PaymentStatus      PaymentStatus
	PaymentIntentID    string
	CanvasImageURL     string
	VideoOperationName string
	VideoURL           string
	Error              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// GenerationPatch describes a partial update. Nil fields are left untouched;
// updated_at is refreshed on every write regardless.
type GenerationPatch struct {
	ProductImageURL    *string
	Status             *Status
	CurrentStep        *Step
	PaymentStatus      *PaymentStatus
	PaymentIntentID    *string
	CanvasImageURL     *string
	VideoOperationName *string
	VideoURL           *string
	Error              *string
}

// ValidStatus reports whether s is one of the closed status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaymentRequired, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether s is a supported payment status.
func ValidPaymentStatus(s PaymentStatus) bool {
	return s == PaymentStatusPending || s == PaymentStatusCompleted
}

// ValidateProductURL checks that raw parses as an absolute http(s) URL.
func ValidateProductURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrValidation
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrValidation
	}
	return nil
}
