package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/adapters/synth"
	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
	"github.com/be-capable/realdog-server/internal/config"
)

// TranslationPipeline runs the three model stages: transcription, planning,
// and audio output. It holds no per-request state; one instance serves all
// concurrent requests.
type TranslationPipeline struct {
	transcriber repositories.SpeechToText
	fallbackSTT repositories.SpeechToText // optional second recognizer
	chat        repositories.ChatCompletion
	tts         repositories.SpeechSynthesizer
	synthesizer *synth.Synthesizer
	outputMode  config.OutputMode
	logger      *zap.Logger
}

func NewTranslationPipeline(
	transcriber repositories.SpeechToText,
	fallbackSTT repositories.SpeechToText,
	chat repositories.ChatCompletion,
	tts repositories.SpeechSynthesizer,
	synthesizer *synth.Synthesizer,
	outputMode config.OutputMode,
	logger *zap.Logger,
) *TranslationPipeline {
	return &TranslationPipeline{
		transcriber: transcriber,
		fallbackSTT: fallbackSTT,
		chat:        chat,
		tts:         tts,
		synthesizer: synthesizer,
		outputMode:  outputMode,
		logger:      logger,
	}
}

// InterpretInput is the dog-to-human request.
type InterpretInput struct {
	Audio         []byte
	Format        entities.AudioFormat
	Locale        string
	PetName       string
	BreedID       string
	ContextNote   string
	CorrelationID string
}

// InterpretOutput is the dog-to-human pipeline result.
type InterpretOutput struct {
	MeaningText string
	EventType   entities.VocalizationType
	StateType   string
	ContextType string
	// Confidence passes through exactly as the model reported it, even
	// outside [0,1]. Display layers clamp if they care.
	Confidence *float64
	Transcript string
	// Spoken is a best-effort rendition of MeaningText; nil when the
	// synthesis stage was skipped or failed.
	Spoken     *repositories.SynthesisResult
	PlanVendor string
	PlanModel  string
}

type interpretReply struct {
	MeaningText  string      `json:"meaningText"`
	DogEventType string      `json:"dogEventType"`
	StateType    *string     `json:"stateType"`
	ContextType  *string     `json:"contextType"`
	Confidence   interface{} `json:"confidence"`
}

// Interpret transcribes a dog vocalization and asks the planning model for
// its meaning. Stage failures propagate; the service layer substitutes the
// low-confidence default so the API call itself never fails past ownership
// checks.
func (p *TranslationPipeline) Interpret(ctx context.Context, in InterpretInput) (InterpretOutput, error) {
	transcript, err := p.transcribe(ctx, in.Audio, in.Format, in.Locale, in.CorrelationID)
	if err != nil {
		return InterpretOutput{}, fmt.Errorf("interpret transcription: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		transcript = nonSpeechSentinel(in.Locale)
	}

	prompt := interpretPrompt(in.Locale, transcript, in.PetName, in.BreedID, in.ContextNote)
	reply, err := p.chat.Chat(ctx, []repositories.ChatMessage{
		{Role: repositories.UserRole, Content: prompt},
	}, 0.2)
	if err != nil {
		return InterpretOutput{}, fmt.Errorf("interpret planning: %w", err)
	}

	var parsed interpretReply
	if err := extractJSON(reply.Content, &parsed); err != nil {
		p.logger.Warn("interpret reply is not JSON",
			zap.String("vendor", reply.Vendor),
			zap.Error(err))
		return InterpretOutput{}, fmt.Errorf("interpret reply: %w", domain.ErrUpstreamMalformed)
	}
	meaning := strings.TrimSpace(parsed.MeaningText)
	if meaning == "" {
		return InterpretOutput{}, fmt.Errorf("interpret meaningText: %w", domain.ErrUpstreamEmpty)
	}

	out := InterpretOutput{
		MeaningText: meaning,
		EventType:   entities.NormalizeVocalizationType(parsed.DogEventType),
		Transcript:  transcript,
		PlanVendor:  reply.Vendor,
		PlanModel:   reply.Model,
	}
	if parsed.StateType != nil {
		out.StateType = *parsed.StateType
	}
	if parsed.ContextType != nil {
		out.ContextType = *parsed.ContextType
	}
	if c, ok := parsed.Confidence.(float64); ok {
		out.Confidence = &c
	}

	// Spoken rendition is best-effort.
	if p.tts != nil {
		spoken, err := p.tts.Synthesize(ctx, meaning, in.Locale, "")
		if err != nil {
			p.logger.Warn("interpret spoken rendition skipped", zap.Error(err))
		} else {
			out.Spoken = &spoken
		}
	}

	return out, nil
}

// SynthesizeInput is the human-to-dog request.
type SynthesizeInput struct {
	Audio         []byte
	Format        entities.AudioFormat
	Locale        string
	Style         string
	CorrelationID string
}

// SynthesizeOutput is the human-to-dog pipeline result.
type SynthesizeOutput struct {
	Plan        entities.TranslationPlan
	AudioBytes  []byte
	AudioFormat entities.AudioFormat
	PlanVendor  string
	TTSVendor   string
}

type planReply struct {
	Transcript string      `json:"transcript"`
	BarkType   string      `json:"barkType"`
	Intensity  interface{} `json:"intensity"`
	DogText    string      `json:"dogText"`
}

// Synthesize turns human speech into a vocalization plan and renders it as
// audio. Transcription and planning failures degrade to a default plan so an
// explicit request for dog audio still yields dog audio; only the output
// stage is fatal.
func (p *TranslationPipeline) Synthesize(ctx context.Context, in SynthesizeInput) (SynthesizeOutput, error) {
	plan, planVendor := p.plan(ctx, in)
	plan.ClampIntensity()

	out := SynthesizeOutput{Plan: plan, PlanVendor: planVendor}

	if p.outputMode == config.OutputRemote && p.tts != nil {
		spoken, err := p.tts.Synthesize(ctx, plan.OutputText, in.Locale, "")
		if err == nil {
			out.AudioBytes = spoken.Bytes
			out.AudioFormat = spoken.Format
			out.TTSVendor = spoken.Vendor
			return out, nil
		}
		p.logger.Warn("remote synthesis failed, using procedural output", zap.Error(err))
	}

	rendered := p.synthesizer.Synthesize(plan.VocalizationType, plan.Intensity)
	out.AudioBytes = rendered.Bytes
	out.AudioFormat = rendered.Format
	out.TTSVendor = rendered.Vendor
	return out, nil
}

// plan runs transcription and the planning chat, degrading to the default
// plan on any failure.
func (p *TranslationPipeline) plan(ctx context.Context, in SynthesizeInput) (entities.TranslationPlan, string) {
	transcript, err := p.transcribe(ctx, in.Audio, in.Format, in.Locale, in.CorrelationID)
	if err != nil {
		p.logger.Warn("synthesize transcription failed, using default plan",
			zap.String("correlation_id", in.CorrelationID),
			zap.Error(err))
		return defaultPlan(""), "fallback"
	}
	if strings.TrimSpace(transcript) == "" {
		transcript = defaultGreeting(in.Locale)
	}

	reply, err := p.chat.Chat(ctx, []repositories.ChatMessage{
		{Role: repositories.SystemRole, Content: planSystemPrompt(in.Locale)},
		{Role: repositories.UserRole, Content: planUserPrompt(in.Locale, in.Style, transcript)},
	}, 0.2)
	if err != nil {
		p.logger.Warn("synthesize planning failed, using default plan",
			zap.String("correlation_id", in.CorrelationID),
			zap.Error(err))
		return defaultPlan(transcript), "fallback"
	}

	var parsed planReply
	if err := extractJSON(reply.Content, &parsed); err != nil {
		p.logger.Warn("plan reply is not JSON, using default plan",
			zap.String("vendor", reply.Vendor),
			zap.Error(err))
		return defaultPlan(transcript), "fallback"
	}

	plan := entities.TranslationPlan{
		VocalizationType: entities.NormalizeVocalizationType(parsed.BarkType),
		Intensity:        0.6,
		OutputText:       strings.TrimSpace(parsed.DogText),
		Transcript:       parsed.Transcript,
	}
	if f, ok := parsed.Intensity.(float64); ok {
		plan.Intensity = f
	}
	if plan.OutputText == "" {
		plan.OutputText = "Woof!"
	}
	if plan.Transcript == "" {
		plan.Transcript = transcript
	}
	return plan, reply.Vendor
}

// transcribe runs the primary recognizer, falling back to the secondary one
// when configured.
func (p *TranslationPipeline) transcribe(ctx context.Context, audio []byte, format entities.AudioFormat, locale, correlationID string) (string, error) {
	req := repositories.TranscriptionRequest{
		Audio:         audio,
		Format:        format,
		SampleRateHz:  16000,
		BitsPerSample: 16,
		Channels:      1,
		Locale:        locale,
		CorrelationID: correlationID,
	}

	result, err := p.transcriber.Transcribe(ctx, req)
	if err == nil {
		return result.Text, nil
	}
	if p.fallbackSTT == nil {
		return "", err
	}

	p.logger.Warn("primary transcription failed, trying fallback",
		zap.String("correlation_id", correlationID),
		zap.Error(err))
	result, ferr := p.fallbackSTT.Transcribe(ctx, req)
	if ferr != nil {
		return "", fmt.Errorf("fallback transcription: %w (primary: %v)", ferr, err)
	}
	return result.Text, nil
}
