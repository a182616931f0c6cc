package veo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/infra"
)

// Options controls how the Veo client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client drives Veo video generation through the Gemini long-running
// operations API: start a generation, poll the returned operation handle,
// download the finished artifact.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// ReferenceImage is one image conditioning the video generation.
type ReferenceImage struct {
	Data     []byte
	MimeType string
}

// PollResult normalizes the heterogeneous operation response shapes into one
// terminal/non-terminal outcome. Exactly one of VideoURI and Error is set
// when Done is true.
type PollResult struct {
	Done     bool
	VideoURI string
	Error    string
}

// NewClient constructs a Veo client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("veo: api key is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "veo-2.0-generate-001"
	}

	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

type startRequest struct {
	Instances  []startInstance `json:"instances"`
	Parameters startParameters `json:"parameters"`
}

type startInstance struct {
	Prompt          string           `json:"prompt"`
	ReferenceImages []referenceImage `json:"referenceImages,omitempty"`
}

type referenceImage struct {
	Image         inlineImage `json:"image"`
	ReferenceType string      `json:"referenceType"`
}

type inlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type startParameters struct {
	AspectRatio      string `json:"aspectRatio"`
	DurationSeconds  int    `json:"durationSeconds"`
	PersonGeneration string `json:"personGeneration"`
}

type startResponse struct {
	Name string `json:"name"`
}

// Start submits a video generation request conditioned on the original
// product image plus the extracted reference images, all tagged as style
// references. It returns the operation name used for polling.
func (c *Client) Start(ctx context.Context, original ReferenceImage, references []ReferenceImage) (string, error) {
	refs := make([]referenceImage, 0, len(references)+1)
	for _, img := range append([]ReferenceImage{original}, references...) {
		mime := img.MimeType
		if mime == "" {
			mime = "image/png"
		}
		refs = append(refs, referenceImage{
			Image: inlineImage{
				BytesBase64Encoded: base64.StdEncoding.EncodeToString(img.Data),
				MimeType:           mime,
			},
			ReferenceType: "STYLE_IMAGE",
		})
	}

	payload := startRequest{
		Instances: []startInstance{{
			Prompt:          showcasePrompt,
			ReferenceImages: refs,
		}},
		Parameters: startParameters{
			AspectRatio:      "16:9",
			DurationSeconds:  8,
			PersonGeneration: "dont_allow",
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.baseURL, url.PathEscape(c.model))
	var decoded startResponse
	if err := c.invoke(ctx, http.MethodPost, endpoint, payload, &decoded); err != nil {
		return "", err
	}

	if decoded.Name == "" {
		return "", fmt.Errorf("veo: no operation name returned")
	}

	c.logger.Info().
		Str("model", c.model).
		Str("operation", decoded.Name).
		Int("reference_images", len(refs)).
		Msg("veo: started video generation")

	return decoded.Name, nil
}

// Poll queries the operation once and normalizes the response. A non-terminal
// operation yields {Done: false}; a terminal one carries either the artifact
// URI or an error message.
func (c *Client) Poll(ctx context.Context, operationName string) (*PollResult, error) {
	if strings.TrimSpace(operationName) == "" {
		return nil, fmt.Errorf("veo: operation name is required")
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(operationName, "/")
	var op operation
	if err := c.invoke(ctx, http.MethodGet, endpoint, nil, &op); err != nil {
		return nil, err
	}

	if !op.Done {
		return &PollResult{Done: false}, nil
	}

	if op.Error != nil {
		msg := op.Error.Message
		if msg == "" {
			msg = "video generation failed"
		}
		return &PollResult{Done: true, Error: msg}, nil
	}

	uri, strategy, ok := ExtractVideoURI(op.Response)
	if ok {
		c.logger.Debug().
			Str("operation", operationName).
			Str("strategy", strategy).
			Msg("veo: operation complete")
		return &PollResult{Done: true, VideoURI: uri}, nil
	}

	if reason, ok := FilteredReason(op.Response); ok {
		return &PollResult{Done: true, Error: reason}, nil
	}

	return &PollResult{Done: true, Error: "no video URI in response"}, nil
}

// Download fetches the generated video bytes. The artifact URI requires the
// API key appended as a query parameter.
func (c *Client) Download(ctx context.Context, videoURI string) ([]byte, error) {
	target := videoURI
	if strings.Contains(videoURI, "?") {
		target += "&key=" + url.QueryEscape(c.apiKey)
	} else {
		target += "?key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("veo: create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("veo: download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("veo: download video status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("veo: read video: %w", err)
	}
	return data, nil
}

func (c *Client) invoke(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("veo: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("veo: create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("veo: invoke api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("veo: api status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("veo: decode response: %w", err)
	}
	return nil
}
