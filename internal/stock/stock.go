// Package stock fetches scene visuals from free stock providers. Scenes
// prefer real video clips; still photos and locally generated placeholders
// are the fallbacks, so visual acquisition never fails a job.
package stock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
)

// Static errors for stock providers.
var (
	// ErrKeyRequired is returned when a provider is built without an API key.
	ErrKeyRequired = errors.New("stock: api key is required")
	// ErrNoResults is returned when a search matches nothing.
	ErrNoResults = errors.New("stock: no results")
	// ErrRateLimited is returned when a provider answers 429.
	ErrRateLimited = errors.New("stock: rate limited")
	// ErrRequestFailed is returned for other non-2xx provider responses.
	ErrRequestFailed = errors.New("stock: request failed")
	// ErrEmptyQuery is returned when a search query is empty.
	ErrEmptyQuery = errors.New("stock: query is empty")
)

// Asset is a fetched visual on local disk.
type Asset struct {
	Path    string
	IsVideo bool
}

// Provider is the port the pipeline consumes for scene visuals.
type Provider interface {
	// Fetch acquires a visual matching the scene text. orientation is one of
	// landscape, portrait or square. When preferVideo is set, providers try
	// moving footage before still images.
	Fetch(ctx context.Context, sceneText, orientation string, preferVideo bool, outputDir string) (Asset, error)
}

var wordPattern = regexp.MustCompile(`[a-zA-Z]+`)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "about": {}, "as": {}, "is": {}, "was": {}, "are": {},
	"were": {}, "be": {}, "been": {}, "being": {}, "have": {}, "has": {},
	"had": {}, "this": {}, "that": {}, "these": {}, "those": {}, "will": {},
	"would": {}, "should": {}, "could": {}, "it": {}, "its": {}, "they": {},
	"them": {}, "their": {},
}

// ExtractKeywords pulls search keywords out of scene text: stop words and
// short words are dropped, at most five keywords are kept. Text with no
// usable words falls back to generic scenery terms.
func ExtractKeywords(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	var keywords []string
	for _, w := range words {
		if _, stop := stopWords[w]; stop || len(w) <= 3 {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == 5 {
			break
		}
	}
	if len(keywords) == 0 {
		return []string{"nature", "landscape", "abstract"}
	}
	return keywords
}

// searchQueries builds the progressive query list: most specific first,
// broadening until a single keyword remains.
func searchQueries(keywords []string) []string {
	var queries []string
	for _, n := range []int{3, 2, 1} {
		if n > len(keywords) {
			continue
		}
		q := strings.Join(keywords[:n], " ")
		if len(queries) == 0 || queries[len(queries)-1] != q {
			queries = append(queries, q)
		}
	}
	return queries
}

// download streams a remote asset to path.
func download(ctx context.Context, hc *http.Client, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("stock: create download request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("stock: download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: download status %d", ErrRequestFailed, resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stock: create file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("stock: write asset: %w", err)
	}
	return nil
}
