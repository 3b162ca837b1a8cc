package stock

import (
	"context"
	"log/slog"
)

// videoImageSearcher is the slice of PexelsClient the library needs.
type videoImageSearcher interface {
	SearchVideo(ctx context.Context, query, orientation, outputDir string) (string, error)
	SearchImage(ctx context.Context, query, orientation, outputDir string) (string, error)
}

// videoSearcher is the slice of PixabayClient the library needs.
type videoSearcher interface {
	SearchVideo(ctx context.Context, query, outputDir string) (string, error)
}

// Library orchestrates the stock providers: progressive keyword searches,
// provider preference with fallback, and a locally generated placeholder
// when everything else fails. Fetch only errors when even the placeholder
// cannot be written.
type Library struct {
	pexels    videoImageSearcher
	pixabay   videoSearcher
	preferred string
	logger    *slog.Logger
}

// NewLibrary builds a Library. Either client may be nil when its API key is
// not configured; preferred names the provider to try first ("pexels" or
// "pixabay").
func NewLibrary(pexels *PexelsClient, pixabay *PixabayClient, preferred string, logger *slog.Logger) *Library {
	l := &Library{preferred: preferred, logger: logger}
	// Typed nils must not end up behind the interfaces.
	if pexels != nil {
		l.pexels = pexels
	}
	if pixabay != nil {
		l.pixabay = pixabay
	}
	return l
}

// Fetch implements Provider.
func (l *Library) Fetch(ctx context.Context, sceneText, orientation string, preferVideo bool, outputDir string) (Asset, error) {
	queries := searchQueries(ExtractKeywords(sceneText))

	if preferVideo {
		for _, query := range queries {
			if path, ok := l.fetchVideo(ctx, query, orientation, outputDir); ok {
				return Asset{Path: path, IsVideo: true}, nil
			}
		}
		l.logger.Warn("no stock video found, falling back to images",
			slog.String("query", queries[0]))
	}

	if l.pexels != nil {
		for _, query := range queries {
			path, err := l.pexels.SearchImage(ctx, query, orientation, outputDir)
			if err == nil {
				return Asset{Path: path}, nil
			}
			if ctx.Err() != nil {
				return Asset{}, ctx.Err()
			}
			l.logger.Debug("stock image search failed",
				slog.String("query", query), slog.Any("error", err))
		}
	}

	l.logger.Warn("all stock providers failed, using placeholder",
		slog.String("orientation", orientation))
	path, err := ScenePlaceholder(outputDir, orientation)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Path: path}, nil
}

// fetchVideo tries each configured video provider for one query, preferred
// provider first.
func (l *Library) fetchVideo(ctx context.Context, query, orientation, outputDir string) (string, bool) {
	type attempt struct {
		name string
		run  func() (string, error)
	}

	var attempts []attempt
	if l.pexels != nil {
		attempts = append(attempts, attempt{"pexels", func() (string, error) {
			return l.pexels.SearchVideo(ctx, query, orientation, outputDir)
		}})
	}
	if l.pixabay != nil {
		attempts = append(attempts, attempt{"pixabay", func() (string, error) {
			return l.pixabay.SearchVideo(ctx, query, outputDir)
		}})
	}
	if l.preferred == "pixabay" && len(attempts) == 2 {
		attempts[0], attempts[1] = attempts[1], attempts[0]
	}

	for _, a := range attempts {
		path, err := a.run()
		if err == nil {
			return path, true
		}
		if ctx.Err() != nil {
			return "", false
		}
		l.logger.Debug("stock video search failed",
			slog.String("provider", a.name),
			slog.String("query", query),
			slog.Any("error", err))
	}
	return "", false
}
