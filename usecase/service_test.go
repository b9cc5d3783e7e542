package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/be-capable/realdog-server/adapters/memory"
	"github.com/be-capable/realdog-server/adapters/synth"
	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
	"github.com/be-capable/realdog-server/internal/config"
)

type serviceFixture struct {
	service *TranslationService
	events  *memory.EventRepository
	storage *memory.Storage
}

func newServiceFixture(t *testing.T, stt repositories.SpeechToText, chat repositories.ChatCompletion, tts repositories.SpeechSynthesizer) serviceFixture {
	logger := zaptest.NewLogger(t)

	pipeline := NewTranslationPipeline(stt, nil, chat, tts,
		synth.NewSynthesizer(logger), config.OutputSynthetic, logger)

	pets := memory.NewPetRepository()
	pets.Seed(entities.Pet{ID: "pet-1", OwnerID: "owner-1", Name: "Milo", BreedID: "corgi"})

	events := memory.NewEventRepository()
	storage := memory.NewStorage()
	coordinator := NewTaskCoordinator(memory.NewTaskRepository(), time.Minute, logger)

	return serviceFixture{
		service: NewTranslationService(pipeline, coordinator, pets, events, storage, logger),
		events:  events,
		storage: storage,
	}
}

func wavUpload() AudioUpload {
	return AudioUpload{Data: []byte("riff-audio"), ContentType: "audio/wav", Filename: "clip.wav"}
}

func TestServiceInterpret(t *testing.T) {
	stt := &fakeSTT{text: "汪汪"}
	chat := &fakeChat{content: `{"meaningText":"我想出去玩","dogEventType":"BARK","confidence":0.9}`}
	f := newServiceFixture(t, stt, chat, nil)

	resp, err := f.service.Interpret(context.Background(), "owner-1", "pet-1", wavUpload(), "zh-CN", "在门口叫")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.EventID)
	assert.True(t, strings.HasPrefix(resp.InputAudioURL, "memory://dog-audio-input/"))
	assert.Equal(t, "我想出去玩", resp.MeaningText)
	assert.Equal(t, entities.VocalizationBark, resp.Labels.DogEventType)
	require.NotNil(t, resp.Confidence)
	assert.InDelta(t, 0.9, *resp.Confidence, 1e-9)

	// Pet context reaches the prompt.
	require.NotEmpty(t, chat.prompts)
	assert.Contains(t, chat.prompts[0], "Milo")
	assert.Contains(t, chat.prompts[0], "在门口叫")

	events := f.events.ByPet("pet-1")
	require.Len(t, events, 1)
	assert.Equal(t, entities.ModeDogToHuman, events[0].Mode)
	assert.Equal(t, "我想出去玩", events[0].MeaningText)
}

func TestServiceInterpretDegradesInsteadOfFailing(t *testing.T) {
	stt := &fakeSTT{text: "woof"}
	chat := &fakeChat{content: "model is confused"} // not JSON
	f := newServiceFixture(t, stt, chat, nil)

	resp, err := f.service.Interpret(context.Background(), "owner-1", "pet-1", wavUpload(), "en-US", "")
	require.NoError(t, err)

	assert.Equal(t, fallbackMeaningText("en-US"), resp.MeaningText)
	assert.Equal(t, entities.VocalizationOther, resp.Labels.DogEventType)
	require.NotNil(t, resp.Confidence)
	assert.InDelta(t, 0.2, *resp.Confidence, 1e-9)
}

func TestServiceInterpretOwnership(t *testing.T) {
	f := newServiceFixture(t, &fakeSTT{text: "woof"}, &fakeChat{content: "{}"}, nil)

	_, err := f.service.Interpret(context.Background(), "owner-2", "pet-1", wavUpload(), "en", "")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.Interpret(context.Background(), "owner-1", "no-such-pet", wavUpload(), "en", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServiceRejectsUnsupportedAudio(t *testing.T) {
	f := newServiceFixture(t, &fakeSTT{text: "x"}, &fakeChat{content: "{}"}, nil)

	upload := AudioUpload{Data: []byte("oggdata"), ContentType: "audio/ogg", Filename: "clip.ogg"}
	_, err := f.service.Interpret(context.Background(), "owner-1", "pet-1", upload, "en", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")

	// Rejected before any network call.
	assert.Empty(t, f.service.pipeline.transcriber.(*fakeSTT).reqs)
}

func TestServiceSynthesizeSync(t *testing.T) {
	stt := &fakeSTT{text: "I am happy"}
	chat := &fakeChat{content: `{"transcript":"I am happy","barkType":"BARK","intensity":0.7,"dogText":"Woof woof!"}`}
	f := newServiceFixture(t, stt, chat, nil)

	resp, err := f.service.SynthesizeSync(context.Background(), "owner-1", "pet-1", wavUpload(), "en-US", "playful")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.EventID)
	assert.NotEmpty(t, resp.OutputAudioURL)
	assert.Equal(t, entities.VocalizationBark, resp.Labels.DogEventType)

	key := strings.TrimPrefix(resp.OutputAudioURL, "memory://")
	data, ok := f.storage.Get(key)
	require.True(t, ok)
	assert.Equal(t, "RIFF", string(data[0:4]))

	events := f.events.ByPet("pet-1")
	require.Len(t, events, 1)
	assert.Equal(t, entities.ModeHumanToDog, events[0].Mode)
	assert.Equal(t, "I am happy", events[0].InputTranscript)
	require.NotNil(t, events[0].Confidence)
	assert.InDelta(t, 0.7, *events[0].Confidence, 1e-9)
}

func TestServiceSynthesizeAsync(t *testing.T) {
	stt := &fakeSTT{text: "come here"}
	chat := &fakeChat{content: `{"transcript":"come here","barkType":"HOWL","intensity":0.4,"dogText":"Awooo"}`}
	f := newServiceFixture(t, stt, chat, nil)

	taskID, err := f.service.SynthesizeAsync(context.Background(), "owner-1", "pet-1", wavUpload(), "en-US", "")
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	var status *TaskStatusResponse
	deadline := time.After(2 * time.Second)
	for {
		status, err = f.service.GetTaskStatus(context.Background(), "owner-1", taskID)
		require.NoError(t, err)
		if status.Status.Terminal() {
			break
		}
		select {
		case <-deadline:
			t.Fatal("task never finished")
		case <-time.After(10 * time.Millisecond):
		}
	}

	require.Equal(t, entities.TaskCompleted, status.Status)
	var result SynthesizeResponse
	require.NoError(t, json.Unmarshal(status.Result, &result))
	assert.NotEmpty(t, result.OutputAudioURL)
	assert.Equal(t, entities.VocalizationHowl, result.Labels.DogEventType)

	// Other owners cannot see the task.
	_, err = f.service.GetTaskStatus(context.Background(), "owner-2", taskID)
	require.ErrorIs(t, err, domain.ErrForbidden)
}
