// Package tts provides the text-to-speech collaborator port and the Azure
// neural TTS implementation.
package tts

import "context"

// Synthesizer is the port the pipeline consumes for narration. The returned
// path points at an audio file on local disk; its real duration is measured
// afterwards with the media prober.
type Synthesizer interface {
	// Synthesize renders text as speech and writes the audio to a file in
	// outputDir. voiceID may be empty, in which case the provider picks a
	// default voice for the locale.
	Synthesize(ctx context.Context, text, locale, voiceID, outputDir string) (audioPath string, err error)
}
