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

const (
	pexelsVideoURL = "https://api.pexels.com/videos/search"
	pexelsPhotoURL = "https://api.pexels.com/v1/search"
)

// PexelsClient searches the Pexels videos and photos APIs.
type PexelsClient struct {
	apiKey     string
	videoURL   string
	photoURL   string
	httpClient *http.Client
}

// PexelsOption configures a PexelsClient.
type PexelsOption func(*PexelsClient)

// WithPexelsHTTPClient sets a custom HTTP client.
func WithPexelsHTTPClient(hc *http.Client) PexelsOption {
	return func(c *PexelsClient) {
		c.httpClient = hc
	}
}

// WithPexelsBaseURLs overrides the search endpoints. Used in tests.
func WithPexelsBaseURLs(videoURL, photoURL string) PexelsOption {
	return func(c *PexelsClient) {
		c.videoURL = videoURL
		c.photoURL = photoURL
	}
}

// NewPexelsClient creates a Pexels client. The API key is required.
func NewPexelsClient(apiKey string, opts ...PexelsOption) (*PexelsClient, error) {
	if apiKey == "" {
		return nil, ErrKeyRequired
	}
	c := &PexelsClient{
		apiKey:     apiKey,
		videoURL:   pexelsVideoURL,
		photoURL:   pexelsPhotoURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type pexelsVideoFile struct {
	Quality  string `json:"quality"`
	Width    int    `json:"width"`
	FileSize int64  `json:"file_size"`
	Link     string `json:"link"`
}

type pexelsVideo struct {
	ID         int               `json:"id"`
	Duration   int               `json:"duration"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

type pexelsVideoSearch struct {
	Videos []pexelsVideo `json:"videos"`
}

type pexelsPhoto struct {
	ID  int `json:"id"`
	Src struct {
		Large string `json:"large"`
	} `json:"src"`
}

type pexelsPhotoSearch struct {
	Photos []pexelsPhoto `json:"photos"`
}

// SearchVideo searches for a clip, picks the best candidate and downloads it
// into outputDir.
func (c *PexelsClient) SearchVideo(ctx context.Context, query, orientation, outputDir string) (string, error) {
	if query == "" {
		return "", ErrEmptyQuery
	}

	params := url.Values{
		"query":       {query},
		"per_page":    {"5"},
		"orientation": {orientation},
	}
	var result pexelsVideoSearch
	if err := c.get(ctx, c.videoURL, params, &result); err != nil {
		return "", err
	}
	if len(result.Videos) == 0 {
		return "", fmt.Errorf("%w for query %q", ErrNoResults, query)
	}

	best := selectBestVideo(result.Videos)
	link := pickVideoFile(best.VideoFiles)
	if link == "" {
		return "", fmt.Errorf("%w: video %d has no files", ErrNoResults, best.ID)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("pexels_video_%d.mp4", best.ID))
	if err := download(ctx, c.httpClient, link, path); err != nil {
		return "", err
	}
	return path, nil
}

// SearchImage searches for a photo and downloads it into outputDir.
func (c *PexelsClient) SearchImage(ctx context.Context, query, orientation, outputDir string) (string, error) {
	if query == "" {
		return "", ErrEmptyQuery
	}

	params := url.Values{
		"query":       {query},
		"per_page":    {"1"},
		"orientation": {orientation},
	}
	var result pexelsPhotoSearch
	if err := c.get(ctx, c.photoURL, params, &result); err != nil {
		return "", err
	}
	if len(result.Photos) == 0 {
		return "", fmt.Errorf("%w for query %q", ErrNoResults, query)
	}

	photo := result.Photos[0]
	path := filepath.Join(outputDir, fmt.Sprintf("pexels_%d.jpg", photo.ID))
	if err := download(ctx, c.httpClient, photo.Src.Large, path); err != nil {
		return "", err
	}
	return path, nil
}

func (c *PexelsClient) get(ctx context.Context, baseURL string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("stock: create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stock: pexels request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: pexels", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: pexels status %d", ErrRequestFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("stock: decode pexels response: %w", err)
	}
	return nil
}

// selectBestVideo scores candidates on quality, duration and resolution and
// returns the highest scorer.
func selectBestVideo(videos []pexelsVideo) pexelsVideo {
	best := videos[0]
	bestScore := -1

	for _, v := range videos {
		score := 0

		hasHD := false
		maxWidth := 0
		var maxSize int64
		for _, f := range v.VideoFiles {
			if f.Quality == "hd" {
				hasHD = true
			}
			if f.Width > maxWidth {
				maxWidth = f.Width
			}
			if f.FileSize > maxSize {
				maxSize = f.FileSize
			}
		}

		if hasHD {
			score += 50
		}

		switch {
		case v.Duration >= 10 && v.Duration <= 30:
			score += 30
		case v.Duration >= 5 && v.Duration <= 45:
			score += 20
		default:
			score += 5
		}

		switch {
		case len(v.VideoFiles) >= 3:
			score += 20
		case len(v.VideoFiles) >= 2:
			score += 10
		}

		switch {
		case maxWidth >= 1920:
			score += 30
		case maxWidth >= 1280:
			score += 20
		case maxWidth >= 720:
			score += 10
		}

		switch {
		case maxSize >= 5<<20:
			score += 10
		case maxSize >= 2<<20:
			score += 5
		}

		if score > bestScore {
			bestScore = score
			best = v
		}
	}
	return best
}

// pickVideoFile prefers the HD rendition, falling back to whatever exists.
func pickVideoFile(files []pexelsVideoFile) string {
	for _, f := range files {
		if f.Quality == "hd" {
			return f.Link
		}
	}
	if len(files) > 0 {
		return files[0].Link
	}
	return ""
}
