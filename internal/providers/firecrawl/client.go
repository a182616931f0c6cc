package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/infra"
)

const extractionPrompt = "Please extract the absolute URL of the main product image that is on this product listing e-commerce page."

// Options controls how the Firecrawl client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client wraps the Firecrawl scrape API to pull the main product image URL
// out of an arbitrary e-commerce product page.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a Firecrawl client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("firecrawl: api key is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.firecrawl.dev/v1"
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
		httpClient: client,
		logger:     logger,
	}, nil
}

type scrapeRequest struct {
	URL         string      `json:"url"`
	Formats     []string    `json:"formats"`
	JSONOptions jsonOptions `json:"jsonOptions"`
}

type jsonOptions struct {
	Prompt string     `json:"prompt"`
	Schema jsonSchema `json:"schema"`
}

type jsonSchema struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		JSON     string `json:"json"`
		Markdown string `json:"markdown,omitempty"`
	} `json:"data"`
}

// ScrapeProductImage scrapes the product page at pageURL and returns the
// extracted main product image URL.
func (c *Client) ScrapeProductImage(ctx context.Context, pageURL string) (string, error) {
	payload := scrapeRequest{
		URL:     pageURL,
		Formats: []string{"json"},
		JSONOptions: jsonOptions{
			Prompt: extractionPrompt,
			Schema: jsonSchema{
				Type:        "string",
				Description: "The main product image url extracted from this ecommerce product page.",
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("firecrawl: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("firecrawl: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("firecrawl: scrape: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("firecrawl: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("firecrawl: decode response: %w", err)
	}

	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = "unknown error"
		}
		return "", fmt.Errorf("firecrawl: scraping failed: %s", msg)
	}

	imageURL := strings.TrimSpace(decoded.Data.JSON)
	if imageURL == "" {
		return "", fmt.Errorf("firecrawl: could not extract product image URL from page")
	}

	c.logger.Debug().
		Str("page_url", pageURL).
		Str("image_url", imageURL).
		Msg("firecrawl: extracted product image")

	return imageURL, nil
}

// FetchImage downloads an image and returns its bytes and content type. The
// content type defaults to PNG when the origin does not declare one.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("firecrawl: create image request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("firecrawl: fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("firecrawl: fetch image status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("firecrawl: read image: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}
	return data, mimeType, nil
}
