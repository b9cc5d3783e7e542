package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
)

// Storage key prefixes, one per audio direction.
const (
	keyDogAudioInput   = "dog-audio-input"
	keyHumanAudioInput = "human-audio-input"
	keyDogAudioOutput  = "dog-audio-output"
)

const taskKindSynthesize = "SYNTHESIZE"

// TranslationService is the produced surface of the translation subsystem:
// interpret, synchronous and asynchronous synthesis, and task polling. The
// surrounding application handles pet CRUD and user management.
type TranslationService struct {
	pipeline    *TranslationPipeline
	coordinator *TaskCoordinator
	pets        repositories.PetRepository
	events      repositories.EventRepository
	storage     repositories.ObjectStorage
	logger      *zap.Logger
}

func NewTranslationService(
	pipeline *TranslationPipeline,
	coordinator *TaskCoordinator,
	pets repositories.PetRepository,
	events repositories.EventRepository,
	storage repositories.ObjectStorage,
	logger *zap.Logger,
) *TranslationService {
	return &TranslationService{
		pipeline:    pipeline,
		coordinator: coordinator,
		pets:        pets,
		events:      events,
		storage:     storage,
		logger:      logger,
	}
}

// AudioUpload is one uploaded clip plus its declared identity.
type AudioUpload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// InterpretResponse is returned by Interpret.
type InterpretResponse struct {
	EventID        string            `json:"eventId"`
	InputAudioURL  string            `json:"inputAudioUrl"`
	OutputAudioURL string            `json:"outputAudioUrl,omitempty"`
	MeaningText    string            `json:"meaningText"`
	Labels         InterpretLabels   `json:"labels"`
	Confidence     *float64          `json:"confidence"`
	ModelVersion   map[string]string `json:"modelVersion,omitempty"`
}

type InterpretLabels struct {
	DogEventType entities.VocalizationType `json:"dogEventType"`
	StateType    string                    `json:"stateType,omitempty"`
	ContextType  string                    `json:"contextType,omitempty"`
}

// Interpret translates a dog vocalization clip into human text. Once the
// ownership check passes this call always succeeds: pipeline failures
// degrade to a fixed low-confidence interpretation.
func (s *TranslationService) Interpret(ctx context.Context, callerID, petID string, audio AudioUpload, locale, contextNote string) (*InterpretResponse, error) {
	pet, err := s.assertPetOwnership(ctx, callerID, petID)
	if err != nil {
		return nil, err
	}
	format, err := entities.DetectAudioFormat(audio.ContentType, audio.Filename)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.New().String()
	inputAudioURL := s.uploadAudio(ctx, keyDogAudioInput, audio.Data, format)

	result, err := s.pipeline.Interpret(ctx, InterpretInput{
		Audio:         audio.Data,
		Format:        format,
		Locale:        locale,
		PetName:       pet.Name,
		BreedID:       pet.BreedID,
		ContextNote:   contextNote,
		CorrelationID: correlationID,
	})
	if err != nil {
		s.logger.Warn("interpretation degraded to default result",
			zap.String("correlation_id", correlationID),
			zap.Error(err))
		fallbackConfidence := 0.2
		result = InterpretOutput{
			MeaningText: fallbackMeaningText(locale),
			EventType:   entities.VocalizationOther,
			Confidence:  &fallbackConfidence,
			PlanVendor:  "fallback",
		}
	}

	outputAudioURL := ""
	if result.Spoken != nil {
		outputAudioURL = s.uploadAudio(ctx, keyDogAudioOutput, result.Spoken.Bytes, result.Spoken.Format)
	}

	event := &entities.DogEvent{
		PetID:           petID,
		Mode:            entities.ModeDogToHuman,
		EventType:       result.EventType,
		StateType:       result.StateType,
		ContextType:     result.ContextType,
		Confidence:      result.Confidence,
		AudioURL:        inputAudioURL,
		OutputAudioURL:  outputAudioURL,
		MeaningText:     result.MeaningText,
		InputTranscript: result.Transcript,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("persist interpret event: %w", err)
	}

	return &InterpretResponse{
		EventID:        event.ID,
		InputAudioURL:  inputAudioURL,
		OutputAudioURL: outputAudioURL,
		MeaningText:    result.MeaningText,
		Labels: InterpretLabels{
			DogEventType: result.EventType,
			StateType:    result.StateType,
			ContextType:  result.ContextType,
		},
		Confidence: result.Confidence,
		ModelVersion: map[string]string{
			"plan": result.PlanVendor,
		},
	}, nil
}

// SynthesizeResponse is returned by SynthesizeSync and stored as the result
// payload of asynchronous tasks.
type SynthesizeResponse struct {
	EventID        string            `json:"eventId"`
	InputAudioURL  string            `json:"inputAudioUrl"`
	OutputAudioURL string            `json:"outputAudioUrl"`
	Labels         SynthesizeLabels  `json:"labels"`
	ModelVersion   map[string]string `json:"modelVersion,omitempty"`
}

type SynthesizeLabels struct {
	DogEventType entities.VocalizationType `json:"dogEventType"`
}

// SynthesizeSync runs the full human-to-dog pipeline inside the request.
// Long clips are better served by SynthesizeAsync.
func (s *TranslationService) SynthesizeSync(ctx context.Context, callerID, petID string, audio AudioUpload, locale, style string) (*SynthesizeResponse, error) {
	if _, err := s.assertPetOwnership(ctx, callerID, petID); err != nil {
		return nil, err
	}
	format, err := entities.DetectAudioFormat(audio.ContentType, audio.Filename)
	if err != nil {
		return nil, err
	}

	inputAudioURL := s.uploadAudio(ctx, keyHumanAudioInput, audio.Data, format)
	return s.runSynthesize(ctx, petID, audio.Data, format, locale, style, inputAudioURL)
}

// SynthesizeAsync persists the input, creates a task, and runs the pipeline
// in the background. The returned task id is polled via GetTaskStatus.
func (s *TranslationService) SynthesizeAsync(ctx context.Context, callerID, petID string, audio AudioUpload, locale, style string) (string, error) {
	if _, err := s.assertPetOwnership(ctx, callerID, petID); err != nil {
		return "", err
	}
	format, err := entities.DetectAudioFormat(audio.ContentType, audio.Filename)
	if err != nil {
		return "", err
	}

	inputAudioURL := s.uploadAudio(ctx, keyHumanAudioInput, audio.Data, format)

	// The goroutine owns its copy of the audio; the request buffer may be
	// reused once the handler returns.
	data := make([]byte, len(audio.Data))
	copy(data, audio.Data)

	return s.coordinator.Submit(ctx, callerID, petID, taskKindSynthesize, func(taskCtx context.Context) (string, error) {
		resp, err := s.runSynthesize(taskCtx, petID, data, format, locale, style, inputAudioURL)
		if err != nil {
			return "", err
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("serialize task result: %w", err)
		}
		return string(payload), nil
	})
}

func (s *TranslationService) runSynthesize(ctx context.Context, petID string, data []byte, format entities.AudioFormat, locale, style, inputAudioURL string) (*SynthesizeResponse, error) {
	correlationID := uuid.New().String()
	result, err := s.pipeline.Synthesize(ctx, SynthesizeInput{
		Audio:         data,
		Format:        format,
		Locale:        locale,
		Style:         style,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}

	outputAudioURL, err := s.storage.Upload(ctx,
		audioKey(keyDogAudioOutput, result.AudioFormat),
		result.AudioBytes,
		result.AudioFormat.ContentType())
	if err != nil {
		return nil, fmt.Errorf("persist output audio: %w", err)
	}

	intensity := result.Plan.Intensity
	event := &entities.DogEvent{
		PetID:           petID,
		Mode:            entities.ModeHumanToDog,
		EventType:       result.Plan.VocalizationType,
		Confidence:      &intensity,
		AudioURL:        inputAudioURL,
		OutputAudioURL:  outputAudioURL,
		InputTranscript: result.Plan.Transcript,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("persist synthesize event: %w", err)
	}

	return &SynthesizeResponse{
		EventID:        event.ID,
		InputAudioURL:  inputAudioURL,
		OutputAudioURL: outputAudioURL,
		Labels:         SynthesizeLabels{DogEventType: result.Plan.VocalizationType},
		ModelVersion: map[string]string{
			"plan": result.PlanVendor,
			"tts":  result.TTSVendor,
		},
	}, nil
}

// TaskStatusResponse is the poll answer for an asynchronous task.
type TaskStatusResponse struct {
	ID        string              `json:"id"`
	Status    entities.TaskStatus `json:"status"`
	Result    json.RawMessage     `json:"result"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// GetTaskStatus returns the owner-scoped view of a task.
func (s *TranslationService) GetTaskStatus(ctx context.Context, callerID, taskID string) (*TaskStatusResponse, error) {
	task, err := s.coordinator.Status(ctx, taskID, callerID)
	if err != nil {
		return nil, err
	}

	resp := &TaskStatusResponse{
		ID:        task.ID,
		Status:    task.Status,
		Error:     task.ErrorMessage,
		CreatedAt: task.CreatedAt,
	}
	if task.Result != "" && json.Valid([]byte(task.Result)) {
		resp.Result = json.RawMessage(task.Result)
	}
	return resp, nil
}

func (s *TranslationService) assertPetOwnership(ctx context.Context, callerID, petID string) (*entities.Pet, error) {
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return nil, err
	}
	if pet.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	return pet, nil
}

// uploadAudio stores a clip and returns its URL. Upload failures degrade to
// an empty URL: losing the audit copy should not fail the translation.
func (s *TranslationService) uploadAudio(ctx context.Context, prefix string, data []byte, format entities.AudioFormat) string {
	url, err := s.storage.Upload(ctx, audioKey(prefix, format), data, format.ContentType())
	if err != nil {
		s.logger.Warn("audio upload failed",
			zap.String("prefix", prefix),
			zap.Error(err))
		return ""
	}
	return url
}

func audioKey(prefix string, format entities.AudioFormat) string {
	return fmt.Sprintf("%s/%s-%d.%s", prefix, uuid.New().String(), time.Now().UnixMilli(), format)
}
