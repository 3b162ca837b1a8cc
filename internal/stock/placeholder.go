package stock

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
)

// Placeholder fills. Neutral solids so fallback frames never show text.
var (
	sceneFill     = color.RGBA{R: 45, G: 55, B: 72, A: 255}
	thumbnailFill = color.RGBA{R: 73, G: 109, B: 137, A: 255}
)

// WritePlaceholderJPEG writes a solid-color JPEG of the given dimensions.
func WritePlaceholderJPEG(path string, width, height int, fill color.RGBA) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stock: create placeholder: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
		return fmt.Errorf("stock: encode placeholder: %w", err)
	}
	return nil
}

// ScenePlaceholder writes a scene-sized placeholder into dir and returns its
// path. Dimensions follow the orientation so composition does not letterbox.
func ScenePlaceholder(dir, orientation string) (string, error) {
	width, height := 1920, 1080
	switch orientation {
	case "portrait":
		width, height = 1080, 1920
	case "square":
		width, height = 1080, 1080
	}

	path := filepath.Join(dir, fmt.Sprintf("placeholder_%s.jpg", orientation))
	if err := WritePlaceholderJPEG(path, width, height, sceneFill); err != nil {
		return "", err
	}
	return path, nil
}

// ThumbnailPlaceholder writes the fallback thumbnail at path.
func ThumbnailPlaceholder(path string) error {
	return WritePlaceholderJPEG(path, 640, 360, thumbnailFill)
}
