package repositories

import (
	"context"
	"encoding/json"

	"github.com/be-capable/realdog-server/domain/entities"
)

// TranscriptionRequest carries one clip through the recognition stage.
// Immutable once built; one per pipeline invocation.
type TranscriptionRequest struct {
	Audio         []byte
	Format        entities.AudioFormat
	SampleRateHz  int
	BitsPerSample int
	Channels      int
	Locale        string
	CorrelationID string
}

// TranscriptResult is the outcome of a transcription. Text may be empty for
// non-speech audio; that is a valid result, not an error.
type TranscriptResult struct {
	Text   string
	Vendor string
	Model  string
	Raw    json.RawMessage
}

// SpeechToText abstracts speech recognition services.
type SpeechToText interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (TranscriptResult, error)
}
