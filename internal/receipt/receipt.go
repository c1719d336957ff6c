// Package receipt talks to the AI receipt-extraction service.
package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/splitbill/internal/models"
)

// ErrNotConfigured is reported when no extraction endpoint is set.
var ErrNotConfigured = errors.New("receipt extraction is not configured")

// Extractor turns a stored receipt image into structured line items.
// A receipt that could not be read is reported through
// ExtractionResult.Success; the error return is for transport failures.
type Extractor interface {
	Extract(ctx context.Context, imageURL string) (*models.ExtractionResult, error)
}

// HTTPExtractor calls a JSON extraction endpoint.
type HTTPExtractor struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPExtractor creates an extractor for url. Requests are bounded by timeout.
func NewHTTPExtractor(url, apiKey string, timeout time.Duration) *HTTPExtractor {
	return &HTTPExtractor{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	ImageURL string `json:"imageUrl"`
}

// Extract posts the image URL and decodes the extraction result.
func (e *HTTPExtractor) Extract(ctx context.Context, imageURL string) (*models.ExtractionResult, error) {
	body, err := json.Marshal(extractRequest{ImageURL: imageURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result models.ExtractionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if result.Success && result.Data == nil {
		result = models.ExtractionResult{Error: "extraction returned no data"}
	}

	slog.Info("Receipt extracted",
		"success", result.Success,
		"duration", time.Since(start),
	)
	return &result, nil
}

// Disabled is the Extractor used when no endpoint is configured.
type Disabled struct{}

// Extract always reports ErrNotConfigured as an unsuccessful result.
func (Disabled) Extract(ctx context.Context, imageURL string) (*models.ExtractionResult, error) {
	return &models.ExtractionResult{Error: ErrNotConfigured.Error()}, nil
}
