// Package catalog serves the read-only libraries backing the scene editor:
// voices, avatars, audio tracks, stock media, platform presets and visual
// styles. The data is compiled in; nothing here mutates.
package catalog

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a catalog item does not exist.
var ErrNotFound = errors.New("catalog: item not found")

// MaxListLimit caps how many items a single listing returns.
const MaxListLimit = 100

// DefaultListLimit applies when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Voice is a synthesis voice available for narration.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Locale      string `json:"language_code"`
	Gender      string `json:"gender"`
	Style       string `json:"style"`
	Provider    string `json:"provider"`
	Premium     bool   `json:"is_premium"`
	SampleURL   string `json:"sample_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Avatar is a presenter avatar.
type Avatar struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Gender      string   `json:"gender"`
	Thumbnail   string   `json:"thumbnail"`
	VideoURL    string   `json:"video_url,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

// AudioTrack is a background music track or sound effect.
type AudioTrack struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Category  string   `json:"category"`
	Duration  float64  `json:"duration"`
	URL       string   `json:"url"`
	Thumbnail string   `json:"thumbnail"`
	Artist    string   `json:"artist,omitempty"`
	Tags      []string `json:"tags"`
}

// MediaAsset is a reusable stock or AI-generated visual.
type MediaAsset struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	URL       string   `json:"url"`
	Thumbnail string   `json:"thumbnail"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Duration  float64  `json:"duration,omitempty"`
	Source    string   `json:"source"`
	Tags      []string `json:"tags"`
}

// Platform is a publishing target preset. MaxDuration of zero means the
// platform imposes no limit.
type Platform struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	AspectRatio     string   `json:"aspect_ratio"`
	MaxDuration     int      `json:"max_duration,omitempty"`
	OptimalDuration int      `json:"optimal_duration"`
	Resolution      string   `json:"resolution"`
	Features        []string `json:"features"`
}

// VisualStyle is a rendering style option.
type VisualStyle struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Premium     bool   `json:"is_premium"`
}

// VoiceFilter narrows voice listings. All set fields must match
// (case-insensitive substring).
type VoiceFilter struct {
	Locale string
	Gender string
	Style  string
	Name   string
}

// AvatarFilter narrows avatar listings.
type AvatarFilter struct {
	Gender string
	Search string
}

// AudioFilter narrows audio listings.
type AudioFilter struct {
	Category string
	Search   string
}

// MediaFilter narrows media listings.
type MediaFilter struct {
	Type   string
	Source string
	Search string
}

// Catalog holds the compiled-in libraries.
type Catalog struct {
	voices    []Voice
	avatars   []Avatar
	audio     []AudioTrack
	media     []MediaAsset
	platforms []Platform
	styles    []VisualStyle
}

// New builds the catalog with its built-in data.
func New() *Catalog {
	return &Catalog{
		voices:    voiceLibrary,
		avatars:   avatarLibrary,
		audio:     audioLibrary,
		media:     mediaLibrary,
		platforms: platformPresets,
		styles:    visualStyles,
	}
}

// ListVoices returns voices matching the filter, up to limit.
func (c *Catalog) ListVoices(filter VoiceFilter, limit int) []Voice {
	limit = clampLimit(limit)

	var out []Voice
	for _, v := range c.voices {
		if !contains(v.Locale, filter.Locale) ||
			!contains(v.Gender, filter.Gender) ||
			!contains(v.Style, filter.Style) ||
			!contains(v.Name, filter.Name) {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

// VoiceByID looks up a voice.
func (c *Catalog) VoiceByID(id string) (Voice, error) {
	for _, v := range c.voices {
		if v.ID == id {
			return v, nil
		}
	}
	return Voice{}, ErrNotFound
}

// ListAvatars returns avatars matching the filter, up to limit. The search
// term matches name or tags.
func (c *Catalog) ListAvatars(filter AvatarFilter, limit int) []Avatar {
	limit = clampLimit(limit)

	var out []Avatar
	for _, a := range c.avatars {
		if !contains(a.Gender, filter.Gender) {
			continue
		}
		if filter.Search != "" && !contains(a.Name, filter.Search) && !tagsContain(a.Tags, filter.Search) {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out
}

// AvatarByID looks up an avatar.
func (c *Catalog) AvatarByID(id string) (Avatar, error) {
	for _, a := range c.avatars {
		if a.ID == id {
			return a, nil
		}
	}
	return Avatar{}, ErrNotFound
}

// ListAudio returns audio tracks matching the filter, up to limit.
func (c *Catalog) ListAudio(filter AudioFilter, limit int) []AudioTrack {
	limit = clampLimit(limit)

	var out []AudioTrack
	for _, t := range c.audio {
		if !contains(t.Category, filter.Category) {
			continue
		}
		if filter.Search != "" && !contains(t.Title, filter.Search) && !tagsContain(t.Tags, filter.Search) {
			continue
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}

// AudioByID looks up an audio track.
func (c *Catalog) AudioByID(id string) (AudioTrack, error) {
	for _, t := range c.audio {
		if t.ID == id {
			return t, nil
		}
	}
	return AudioTrack{}, ErrNotFound
}

// ListMedia returns media assets matching the filter, up to limit.
func (c *Catalog) ListMedia(filter MediaFilter, limit int) []MediaAsset {
	limit = clampLimit(limit)

	var out []MediaAsset
	for _, m := range c.media {
		if !contains(m.Type, filter.Type) || !contains(m.Source, filter.Source) {
			continue
		}
		if filter.Search != "" && !contains(m.Title, filter.Search) && !tagsContain(m.Tags, filter.Search) {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out
}

// MediaByID looks up a media asset.
func (c *Catalog) MediaByID(id string) (MediaAsset, error) {
	for _, m := range c.media {
		if m.ID == id {
			return m, nil
		}
	}
	return MediaAsset{}, ErrNotFound
}

// ListPlatforms returns every platform preset.
func (c *Catalog) ListPlatforms() []Platform {
	return c.platforms
}

// PlatformByID looks up a platform preset.
func (c *Catalog) PlatformByID(id string) (Platform, error) {
	for _, p := range c.platforms {
		if p.ID == id {
			return p, nil
		}
	}
	return Platform{}, ErrNotFound
}

// ListVisualStyles returns every visual style.
func (c *Catalog) ListVisualStyles() []VisualStyle {
	return c.styles
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// contains reports whether haystack contains needle, case-insensitively.
// An empty needle matches everything.
func contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func tagsContain(tags []string, needle string) bool {
	for _, tag := range tags {
		if contains(tag, needle) {
			return true
		}
	}
	return false
}
