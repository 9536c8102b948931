// Package docqa is the Go client for the document QA HTTP API.
package docqa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 120 * time.Second

// Client talks to a running document QA server. All calls carry the user
// identity in the userId header; one Client can serve many users.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// UploadResult is the response of a successful upload.
type UploadResult struct {
	Message string   `json:"message"`
	Splits  []string `json:"splits"`
}

// UploadFile uploads a document for the user, replacing any previous one.
func (c *Client) UploadFile(ctx context.Context, userID, filename string, content io.Reader) (UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(fw, content); err != nil {
		return UploadResult{}, fmt.Errorf("copy file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", userID, &body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return UploadResult{}, err
	}
	return result, nil
}

// Ask answers a question against the user's uploaded document.
func (c *Client) Ask(ctx context.Context, userID, question string) (string, error) {
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return "", fmt.Errorf("marshal question: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/ask", userID, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var result struct {
		Answer string `json:"answer"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	return result.Answer, nil
}

// GetQuestions returns suggested questions for the user's document.
func (c *Client) GetQuestions(ctx context.Context, userID string) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/get-questions", userID, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Status    string   `json:"status"`
		Questions []string `json:"questions"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result.Questions, nil
}

// Flush removes the user's document and session state.
func (c *Client) Flush(ctx context.Context, userID string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/flush", userID, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Health reports the server's component health.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var result struct {
		Checks map[string]string `json:"checks"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result.Checks, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, userID string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("userId", userID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
