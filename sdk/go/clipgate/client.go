// Package clipgate is a small typed client for the clipgate HTTP API.
package clipgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError is the decoded problem response returned by the service.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	// RetryAfter is the server-suggested wait for backpressure denials,
	// zero when the response carried no Retry-After header.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("clipgate: unexpected status %d", e.StatusCode)
}

// MediaMeta mirrors the metadata block the service returns for previews.
type MediaMeta struct {
	Title           string `json:"title"`
	Uploader        string `json:"uploader,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	SizeApproxBytes int64  `json:"size_approx_bytes,omitempty"`
	WebpageURL      string `json:"webpage_url"`
}

// Preview is the response of POST /v1/previews.
type Preview struct {
	Meta     *MediaMeta `json:"meta"`
	Token    string     `json:"token"`
	Platform string     `json:"platform"`
}

// UserStats is the response of GET /v1/users/{id}/stats.
type UserStats struct {
	Downloads int64 `json:"downloads"`
	Events    int64 `json:"events"`
}

// Client talks to a clipgate instance. A zero HTTPClient gets a sane default.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL, e.g. "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Preview asks the service to extract metadata for a URL and mint a link token.
func (c *Client) Preview(ctx context.Context, userID int64, url string) (*Preview, error) {
	body := map[string]interface{}{"user_id": userID, "url": url}
	var out Preview
	if err := c.do(ctx, http.MethodPost, "/v1/previews", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserStats returns the aggregate counters for a user.
func (c *Client) UserStats(ctx context.Context, userID int64) (*UserStats, error) {
	var out UserStats
	path := fmt.Sprintf("/v1/users/%d/stats", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveToken looks up the URL behind a minted link token.
func (c *Client) ResolveToken(ctx context.Context, token string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/tokens/"+token, nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var problem struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if json.Unmarshal(raw, &problem) == nil {
			apiErr.Code = problem.Error
			apiErr.Description = problem.Description
		}
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, convErr := strconv.Atoi(ra); convErr == nil {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
