// Package subtitle computes timed subtitle segments for narrated scenes and
// exports them in SRT, WebVTT and ASS formats. Segments are transient: they
// exist only for one pipeline attempt.
package subtitle

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyText is returned when subtitles are requested for empty text.
var ErrEmptyText = errors.New("subtitle: text is empty")

// ErrInvalidDuration is returned when the audio duration is not positive.
var ErrInvalidDuration = errors.New("subtitle: audio duration must be positive")

// Segment is one timed subtitle entry. Start and End are seconds from the
// start of the timeline the segment belongs to.
type Segment struct {
	Text  string
	Start float64
	End   float64
}

// Duration returns the on-screen time of the segment.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Generator is the port the pipeline consumes for subtitle timing. The
// returned segments are timed relative to the given audio file's start.
type Generator interface {
	// Generate produces word-grouped segments for one scene's audio and text.
	Generate(ctx context.Context, audioDuration float64, text string, wordsPerLine int) ([]Segment, error)
}

// Timer is the estimation-based Generator. It spreads words across the
// measured audio duration, weighting longer words slightly heavier, then
// normalizes so the last segment ends exactly at the audio duration.
type Timer struct{}

// NewTimer creates a Timer.
func NewTimer() *Timer {
	return &Timer{}
}

// Generate implements Generator.
func (g *Timer) Generate(ctx context.Context, audioDuration float64, text string, wordsPerLine int) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if audioDuration <= 0 {
		return nil, ErrInvalidDuration
	}

	words := EstimateWordTiming(text, audioDuration)
	if wordsPerLine > 1 {
		words = Group(words, wordsPerLine)
	}
	return words, nil
}

// EstimateWordTiming spreads the words of text across audioDuration.
// Longer words get proportionally more time (factor 0.8..1.2 of the mean),
// and the result is scaled so the final word ends exactly at audioDuration.
func EstimateWordTiming(text string, audioDuration float64) []Segment {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	timePerWord := audioDuration / float64(len(words))

	segments := make([]Segment, 0, len(words))
	current := 0.0
	for _, word := range words {
		weight := 0.8 + 0.4*min(float64(len(word))/10, 1)
		d := timePerWord * weight
		segments = append(segments, Segment{Text: word, Start: current, End: current + d})
		current += d
	}

	// Normalize to the exact measured duration.
	scale := audioDuration / current
	for i := range segments {
		segments[i].Start *= scale
		segments[i].End *= scale
	}
	return segments
}

// Group merges consecutive word segments into lines of up to wordsPerLine
// words. Each line spans from its first word's start to its last word's end,
// so grouped segments never overlap.
func Group(segments []Segment, wordsPerLine int) []Segment {
	if wordsPerLine <= 1 {
		return segments
	}

	var grouped []Segment
	for i := 0; i < len(segments); i += wordsPerLine {
		end := min(i+wordsPerLine, len(segments))
		group := segments[i:end]

		texts := make([]string, len(group))
		for j, seg := range group {
			texts[j] = seg.Text
		}
		grouped = append(grouped, Segment{
			Text:  strings.Join(texts, " "),
			Start: group[0].Start,
			End:   group[len(group)-1].End,
		})
	}
	return grouped
}

// Offset shifts every segment by delta seconds, moving a scene's segments
// onto the final video's timeline.
func Offset(segments []Segment, delta float64) []Segment {
	shifted := make([]Segment, len(segments))
	for i, seg := range segments {
		shifted[i] = Segment{Text: seg.Text, Start: seg.Start + delta, End: seg.End + delta}
	}
	return shifted
}

// ExportSRT renders segments in SubRip format.
func ExportSRT(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(seg.Start), srtTimestamp(seg.End), seg.Text)
	}
	return b.String()
}

// ExportVTT renders segments in WebVTT format.
func ExportVTT(segments []Segment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n",
			vttTimestamp(seg.Start), vttTimestamp(seg.End), seg.Text)
	}
	return b.String()
}

func srtTimestamp(seconds float64) string {
	h, m, s, frac := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, int(frac*1000))
}

func vttTimestamp(seconds float64) string {
	h, m, s, frac := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, int(frac*1000))
}

func assTimestamp(seconds float64) string {
	h, m, s, frac := splitTime(seconds)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, int(frac*100))
}

func splitTime(seconds float64) (h, m, s int, frac float64) {
	whole := int(seconds)
	return whole / 3600, (whole % 3600) / 60, whole % 60, seconds - float64(whole)
}
