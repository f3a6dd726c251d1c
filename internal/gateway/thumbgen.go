package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"doneby/internal/config"
	"doneby/internal/observability"
)

// ThumbnailGenerator renders an image for an achieved plan.
type ThumbnailGenerator interface {
	Generate(ctx context.Context, planText string) ([]byte, error)
}

// ImageModelClient calls a hosted text-to-image model. The host returns 503
// with an estimated_time while the model is still loading, so requests are
// retried a bounded number of times.
type ImageModelClient struct {
	endpoint string
	apiKey   string
	http     *http.Client

	maxAttempts int
	backoff     time.Duration
}

// NewImageModelClient builds a thumbnail client from application config.
func NewImageModelClient(cfg *config.Config) *ImageModelClient {
	timeout := time.Duration(cfg.ThumbTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ImageModelClient{
		endpoint:    cfg.ThumbAPIURL,
		apiKey:      cfg.ThumbAPIKey,
		http:        &http.Client{Timeout: timeout},
		maxAttempts: 3,
		backoff:     5 * time.Second,
	}
}

type imageRequest struct {
	Inputs string `json:"inputs"`
}

type modelLoadingResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Generate renders an image for the given plan text and returns the raw bytes.
func (c *ImageModelClient) Generate(ctx context.Context, planText string) (img []byte, err error) {
	start := time.Now()
	defer func() { observability.ObserveExternalCall("thumbnail", start, err) }()

	prompt := fmt.Sprintf("A warm, celebratory illustration for the accomplishment: %s", planText)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		img, retryable, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return img, nil
		}
		if !retryable || attempt == c.maxAttempts {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff):
		}
	}
	return nil, fmt.Errorf("thumbnail generation exhausted retries")
}

func (c *ImageModelClient) generateOnce(ctx context.Context, prompt string) (img []byte, retryable bool, err error) {
	payload, err := json.Marshal(imageRequest{Inputs: prompt})
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("thumbnail request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if len(body) == 0 {
			return nil, false, fmt.Errorf("thumbnail service returned empty image")
		}
		return body, false, nil
	case http.StatusServiceUnavailable:
		var loading modelLoadingResponse
		if json.Unmarshal(body, &loading) == nil && loading.EstimatedTime > 0 {
			return nil, true, fmt.Errorf("thumbnail model loading, estimated %.0fs", loading.EstimatedTime)
		}
		return nil, true, fmt.Errorf("thumbnail service unavailable")
	default:
		return nil, false, fmt.Errorf("thumbnail service returned status %d", resp.StatusCode)
	}
}
