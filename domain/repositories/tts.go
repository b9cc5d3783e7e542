package repositories

import (
	"context"

	"github.com/be-capable/realdog-server/domain/entities"
)

// SynthesisResult is the audio produced by a speech-synthesis call.
type SynthesisResult struct {
	Bytes  []byte
	Format entities.AudioFormat
	Vendor string
	Model  string
}

// SpeechSynthesizer abstracts remote text-to-speech services.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, locale, voiceHint string) (SynthesisResult, error)
}
