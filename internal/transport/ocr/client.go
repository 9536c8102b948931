// Package ocr is the HTTP client for the optical recognition collaborator.
// The service accepts raw document bytes and returns recognized text grouped
// into pages of lines.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls the OCR service over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// Config holds OCR client settings.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// NewClient creates an OCR client.
func NewClient(cfg Config) *Client {
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: t},
	}
}

// recognizeResponse mirrors the service's layout analysis result.
type recognizeResponse struct {
	Pages []struct {
		Lines []string `json:"lines"`
	} `json:"pages"`
}

// Recognize submits document bytes and returns the recognized text, pages
// concatenated in order, one line per text line.
func (c *Client) Recognize(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint+"/recognize", bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.apiKey != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ocr service returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}

	var sb strings.Builder
	for _, page := range parsed.Pages {
		for _, line := range page.Lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
