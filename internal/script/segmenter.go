// Package script turns raw narration scripts into ordered scenes.
// Scenes are transient: they exist only for the duration of one pipeline
// attempt and are never persisted.
package script

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyScript is returned when a script yields no scenes.
var ErrEmptyScript = errors.New("script: no scenes in script")

// Transition is the effect applied between one scene and the next.
type Transition string

const (
	TransitionFade     Transition = "fade"
	TransitionCut      Transition = "cut"
	TransitionDissolve Transition = "dissolve"
	TransitionSlide    Transition = "slide"
	TransitionWipe     Transition = "wipe"
	TransitionZoom     Transition = "zoom"
)

// Scene is one contiguous narration unit with its own audio and visual.
// Duration starts as a word-count estimate; the pipeline overwrites it with
// the measured audio duration after narration, and all downstream timing is
// computed from the measured value.
type Scene struct {
	// Index is the ordinal position of the scene in the video.
	Index int
	// Text is the narration for this scene.
	Text string
	// WordCount is the number of words in Text.
	WordCount int
	// Duration is the scene length in seconds.
	Duration float64
	// Transition is the effect into the next scene.
	Transition Transition
	// AudioPath is the narration audio file, set during the narrate stage.
	AudioPath string
	// VisualPath is the scene's visual asset, set during acquisition.
	VisualPath string
	// VisualIsVideo is true when VisualPath points at a clip rather than a still.
	VisualIsVideo bool
}

// Segmenter is the port the pipeline consumes for sentence segmentation.
type Segmenter interface {
	// Segment splits scriptText into ordered scenes with estimated durations.
	// Returns ErrEmptyScript when the cleaned script contains no narration.
	Segment(ctx context.Context, scriptText, locale string) ([]Scene, error)
}

// Defaults for scene sizing.
const (
	DefaultWordsPerSecond   = 2.5
	DefaultMinSceneDuration = 2.0
	DefaultMaxSceneDuration = 10.0
)

// sentencePatterns holds per-language sentence terminators. The key is the
// primary language subtag of the locale.
var sentencePatterns = map[string]*regexp.Regexp{
	"en": regexp.MustCompile(`[.!?]+\s+`),
	"ja": regexp.MustCompile(`[。！？]+`),
	"ne": regexp.MustCompile(`[।॥?!]+\s*`),
}

// defaultPattern covers Latin, CJK and Devanagari terminators.
var defaultPattern = regexp.MustCompile(`[.!?。！？।॥]+\s*`)

// markdownHeading matches lines the narration must not include.
var markdownHeading = regexp.MustCompile(`^\s*#`)

// SentenceSegmenter is the default Segmenter. It cleans markdown out of the
// script, splits it into sentences by locale, packs very short sentences
// together, estimates durations from the speaking rate and assigns
// transitions.
type SentenceSegmenter struct {
	wordsPerSecond   float64
	minSceneDuration float64
	maxSceneDuration float64
}

// Option configures a SentenceSegmenter.
type Option func(*SentenceSegmenter)

// WithWordsPerSecond overrides the assumed speaking rate.
func WithWordsPerSecond(wps float64) Option {
	return func(s *SentenceSegmenter) {
		if wps > 0 {
			s.wordsPerSecond = wps
		}
	}
}

// WithSceneDurationBounds overrides the clamp applied to estimated durations.
func WithSceneDurationBounds(minSec, maxSec float64) Option {
	return func(s *SentenceSegmenter) {
		if minSec > 0 && maxSec >= minSec {
			s.minSceneDuration = minSec
			s.maxSceneDuration = maxSec
		}
	}
}

// NewSentenceSegmenter creates a segmenter with the default speaking rate
// and duration bounds.
func NewSentenceSegmenter(opts ...Option) *SentenceSegmenter {
	s := &SentenceSegmenter{
		wordsPerSecond:   DefaultWordsPerSecond,
		minSceneDuration: DefaultMinSceneDuration,
		maxSceneDuration: DefaultMaxSceneDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment implements Segmenter.
func (s *SentenceSegmenter) Segment(ctx context.Context, scriptText, locale string) ([]Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaned := Clean(scriptText)
	if cleaned == "" {
		return nil, ErrEmptyScript
	}

	sentences := splitSentences(cleaned, locale)
	sentences = s.pack(sentences)
	if len(sentences) == 0 {
		return nil, ErrEmptyScript
	}

	transitions := []Transition{TransitionFade, TransitionDissolve}
	scenes := make([]Scene, 0, len(sentences))
	for i, text := range sentences {
		words := countWords(text)
		scenes = append(scenes, Scene{
			Index:      i,
			Text:       text,
			WordCount:  words,
			Duration:   s.estimate(words),
			Transition: transitions[i%len(transitions)],
		})
	}
	return scenes, nil
}

// Clean strips markdown headings and collapses the remaining lines into a
// single narration string. Headings stay in the stored script for display
// but must never be spoken.
func Clean(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || markdownHeading.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}

// splitSentences splits narration text on the locale's sentence terminators.
func splitSentences(text, locale string) []string {
	lang := locale
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		lang = locale[:i]
	}
	pattern, ok := sentencePatterns[strings.ToLower(lang)]
	if !ok {
		pattern = defaultPattern
	}

	var sentences []string
	for _, part := range pattern.Split(text, -1) {
		part = strings.TrimSpace(strings.Trim(part, ".!?。！？।॥"))
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// pack merges sentences too short to carry a scene into their successor, so
// every scene narrates for at least the minimum duration.
func (s *SentenceSegmenter) pack(sentences []string) []string {
	minWords := int(s.minSceneDuration * s.wordsPerSecond)

	var packed []string
	carry := ""
	for _, sentence := range sentences {
		if carry != "" {
			sentence = carry + ". " + sentence
			carry = ""
		}
		if countWords(sentence) < minWords {
			carry = sentence
			continue
		}
		packed = append(packed, sentence)
	}
	if carry != "" {
		if len(packed) > 0 {
			packed[len(packed)-1] += ". " + carry
		} else {
			packed = append(packed, carry)
		}
	}
	return packed
}

// estimate derives a preliminary duration from the word count, clamped to
// the scene bounds. The narrate stage replaces it with the probed value.
func (s *SentenceSegmenter) estimate(words int) float64 {
	d := float64(words) / s.wordsPerSecond
	if d < s.minSceneDuration {
		d = s.minSceneDuration
	}
	if d > s.maxSceneDuration {
		d = s.maxSceneDuration
	}
	return d
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
