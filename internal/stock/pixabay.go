package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"
)

const pixabayVideoURL = "https://pixabay.com/api/videos/"

// PixabayClient searches the Pixabay videos API.
type PixabayClient struct {
	apiKey     string
	videoURL   string
	httpClient *http.Client
}

// PixabayOption configures a PixabayClient.
type PixabayOption func(*PixabayClient)

// WithPixabayHTTPClient sets a custom HTTP client.
func WithPixabayHTTPClient(hc *http.Client) PixabayOption {
	return func(c *PixabayClient) {
		c.httpClient = hc
	}
}

// WithPixabayBaseURL overrides the search endpoint. Used in tests.
func WithPixabayBaseURL(u string) PixabayOption {
	return func(c *PixabayClient) {
		c.videoURL = u
	}
}

// NewPixabayClient creates a Pixabay client. The API key is required.
func NewPixabayClient(apiKey string, opts ...PixabayOption) (*PixabayClient, error) {
	if apiKey == "" {
		return nil, ErrKeyRequired
	}
	c := &PixabayClient{
		apiKey:     apiKey,
		videoURL:   pixabayVideoURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type pixabayRendition struct {
	URL string `json:"url"`
}

type pixabayHit struct {
	ID       int                         `json:"id"`
	Duration int                         `json:"duration"`
	Videos   map[string]pixabayRendition `json:"videos"`
}

type pixabaySearch struct {
	Hits []pixabayHit `json:"hits"`
}

// SearchVideo searches for a clip and downloads the largest available
// rendition into outputDir.
func (c *PixabayClient) SearchVideo(ctx context.Context, query, outputDir string) (string, error) {
	if query == "" {
		return "", ErrEmptyQuery
	}

	params := url.Values{
		"key":        {c.apiKey},
		"q":          {query},
		"per_page":   {"3"},
		"video_type": {"all"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.videoURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("stock: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stock: pixabay request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: pixabay", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: pixabay status %d", ErrRequestFailed, resp.StatusCode)
	}

	var result pixabaySearch
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("stock: decode pixabay response: %w", err)
	}
	if len(result.Hits) == 0 {
		return "", fmt.Errorf("%w for query %q", ErrNoResults, query)
	}

	hit := result.Hits[0]
	link := ""
	for _, size := range []string{"large", "medium", "small"} {
		if r, ok := hit.Videos[size]; ok && r.URL != "" {
			link = r.URL
			break
		}
	}
	if link == "" {
		return "", fmt.Errorf("%w: hit %d has no renditions", ErrNoResults, hit.ID)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("pixabay_video_%d.mp4", hit.ID))
	if err := download(ctx, c.httpClient, link, path); err != nil {
		return "", err
	}
	return path, nil
}
