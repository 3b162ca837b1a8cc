package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Static errors for Azure TTS operations.
var (
	// ErrKeyRequired is returned when no subscription key is configured.
	ErrKeyRequired = errors.New("tts: subscription key is required")
	// ErrEmptyText is returned when synthesis is requested for empty text.
	ErrEmptyText = errors.New("tts: text is empty")
	// ErrServerError is returned when the endpoint answers with a 5xx status.
	ErrServerError = errors.New("tts: server error")
	// ErrRateLimited is returned when the endpoint answers 429.
	ErrRateLimited = errors.New("tts: rate limited")
	// ErrRequestFailed is returned for other non-2xx statuses.
	ErrRequestFailed = errors.New("tts: request failed")
)

// AzureClient synthesizes speech through the Azure Cognitive Services
// neural TTS REST endpoint: SSML in, MP3 bytes out.
type AzureClient struct {
	key         string
	endpoint    string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// Option configures an AzureClient.
type Option func(*AzureClient)

// WithEndpoint overrides the synthesis endpoint URL. Used in tests.
func WithEndpoint(url string) Option {
	return func(c *AzureClient) {
		c.endpoint = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *AzureClient) {
		c.httpClient = hc
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *AzureClient) {
		c.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) Option {
	return func(c *AzureClient) {
		c.baseBackoff = d
	}
}

// NewAzureClient creates a client for the given region. The subscription key
// is required; the endpoint is derived from the region unless overridden.
func NewAzureClient(key, region string, opts ...Option) (*AzureClient, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if region == "" {
		region = "eastus"
	}

	c := &AzureClient{
		key:         key,
		endpoint:    fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Synthesize implements Synthesizer. The audio file is written to outputDir
// with a unique name and its path returned.
func (c *AzureClient) Synthesize(ctx context.Context, text, locale, voiceID, outputDir string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	locale = NormalizeLocale(locale)
	if voiceID == "" {
		voiceID = DefaultVoice(locale)
	}

	ssml := buildSSML(text, locale, voiceID)

	audio, err := c.requestWithRetry(ctx, ssml)
	if err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, fmt.Sprintf("tts_%s.mp3", uuid.New().String()[:8]))
	if err := os.WriteFile(path, audio, 0600); err != nil {
		return "", fmt.Errorf("tts: write audio file: %w", err)
	}
	return path, nil
}

// requestWithRetry posts the SSML with exponential backoff on transient
// failures.
func (c *AzureClient) requestWithRetry(ctx context.Context, ssml string) ([]byte, error) {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tts: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		audio, err := c.request(ctx, ssml)
		if err == nil {
			return audio, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("tts: max retries exceeded: %w", lastErr)
}

func (c *AzureClient) request(ctx context.Context, ssml string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("tts: create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "audio-16khz-32kbitrate-mono-mp3")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("tts: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("tts: read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode >= 500:
		return nil, &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, body)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, body)}
	default:
		return nil, fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, body)
	}
}

// buildSSML wraps text in the minimal SSML envelope the endpoint expects.
func buildSSML(text, locale, voiceID string) string {
	escaped := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(text)

	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'>%s</voice></speak>`,
		locale, locale, voiceID, escaped)
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
