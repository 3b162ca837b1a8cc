package subtitle

import (
	"fmt"
	"strings"
)

// Style configures ASS rendering. Colors use the ASS &HAABBGGRR form.
type Style struct {
	FontName     string
	FontSize     int
	PrimaryColor string
	OutlineColor string
	BackColor    string
	Bold         bool
	Italic       bool
	// Alignment follows the numpad layout; 2 is bottom center.
	Alignment int
	MarginV   int
	MarginH   int
}

// DefaultStyle is the plain burned-in look.
func DefaultStyle() Style {
	return Style{
		FontName:     "Arial",
		FontSize:     48,
		PrimaryColor: "&H00FFFFFF",
		OutlineColor: "&H00000000",
		BackColor:    "&H80000000",
		Bold:         true,
		Alignment:    2,
		MarginV:      20,
		MarginH:      10,
	}
}

// StyleFor returns the ASS style preset for a subtitle style name.
// Karaoke and word-highlight presets render larger with a yellow primary so
// the per-word pacing reads clearly.
func StyleFor(name string) Style {
	s := DefaultStyle()
	switch name {
	case "karaoke":
		s.FontSize = 56
		s.PrimaryColor = "&H0000FFFF"
	case "word_highlight":
		s.FontSize = 56
		s.Alignment = 5
	}
	return s
}

// ExportASS renders segments in Advanced SubStation Alpha format with the
// given style.
func ExportASS(segments []Segment, style Style) string {
	var b strings.Builder

	b.WriteString("[Script Info]\n")
	b.WriteString("Title: VideoForge Generated Subtitles\n")
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("WrapStyle: 0\n")
	b.WriteString("PlayResX: 1920\n")
	b.WriteString("PlayResY: 1080\n\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,&H000000FF,%s,%s,%s,%s,0,0,100,100,0,0,1,2,0,%d,%d,%d,%d,1\n\n",
		style.FontName, style.FontSize, style.PrimaryColor, style.OutlineColor, style.BackColor,
		assBool(style.Bold), assBool(style.Italic),
		style.Alignment, style.MarginH, style.MarginH, style.MarginV)

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, seg := range segments {
		text := strings.ReplaceAll(seg.Text, "\n", "\\N")
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			assTimestamp(seg.Start), assTimestamp(seg.End), text)
	}
	return b.String()
}

func assBool(v bool) string {
	if v {
		return "-1"
	}
	return "0"
}
