package asr

import (
	"context"
	"fmt"
	"io"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/domain/repositories"
)

// GoogleTranscriber is the fallback recognition route used when the primary
// vendor session fails. Credentials come from the ambient Google Cloud
// environment.
type GoogleTranscriber struct {
	logger *zap.Logger
}

func NewGoogleTranscriber(logger *zap.Logger) *GoogleTranscriber {
	return &GoogleTranscriber{logger: logger}
}

var _ repositories.SpeechToText = (*GoogleTranscriber)(nil)

// Transcribe sends the whole clip through a single streaming recognize
// exchange and collects the final result. An empty transcript is returned
// as-is; silence is not an error.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, req repositories.TranscriptionRequest) (repositories.TranscriptResult, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return repositories.TranscriptResult{}, fmt.Errorf("create speech client: %w", err)
	}
	defer client.Close()

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		return repositories.TranscriptResult{}, fmt.Errorf("open streaming recognize: %w", err)
	}

	sampleRate := req.SampleRateHz
	if sampleRate == 0 {
		sampleRate = 16000
	}
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encodingFor(req),
					SampleRateHertz: int32(sampleRate),
					LanguageCode:    googleLanguage(req.Locale),
				},
				InterimResults:  false,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		return repositories.TranscriptResult{}, fmt.Errorf("send streaming config: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: req.Audio,
		},
	}); err != nil {
		return repositories.TranscriptResult{}, fmt.Errorf("send audio content: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return repositories.TranscriptResult{}, fmt.Errorf("close send stream: %w", err)
	}

	var transcript string
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return repositories.TranscriptResult{}, fmt.Errorf("receive recognition response: %w", err)
		}
		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				transcript = result.Alternatives[0].Transcript
			}
		}
	}

	g.logger.Debug("google fallback transcription done",
		zap.String("reqid", req.CorrelationID),
		zap.Int("transcriptLen", len(transcript)))

	return repositories.TranscriptResult{
		Text:   strings.TrimSpace(transcript),
		Vendor: "google",
		Model:  "speech/v1",
	}, nil
}

func encodingFor(req repositories.TranscriptionRequest) speechpb.RecognitionConfig_AudioEncoding {
	if req.Format == "mp3" {
		return speechpb.RecognitionConfig_MP3
	}
	return speechpb.RecognitionConfig_LINEAR16
}

func googleLanguage(locale string) string {
	switch {
	case strings.HasPrefix(locale, "en"):
		return "en-US"
	case strings.HasPrefix(locale, "zh"), locale == "":
		return "cmn-Hans-CN"
	default:
		return locale
	}
}
