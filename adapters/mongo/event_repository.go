package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
)

type EventRepository struct {
	collection *mongo.Collection
}

// NewEventRepository creates a new MongoDB event repository
func NewEventRepository(db *mongo.Database) repositories.EventRepository {
	return &EventRepository{
		collection: db.Collection("dog_events"),
	}
}

// Create implements repositories.EventRepository
func (r *EventRepository) Create(ctx context.Context, event *entities.DogEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	doc := bson.M{
		"pet_id":           event.PetID,
		"mode":             event.Mode,
		"event_type":       event.EventType,
		"state_type":       event.StateType,
		"context_type":     event.ContextType,
		"confidence":       event.Confidence,
		"audio_url":        event.AudioURL,
		"output_audio_url": event.OutputAudioURL,
		"meaning_text":     event.MeaningText,
		"input_transcript": event.InputTranscript,
		"created_at":       event.CreatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create dog event: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid.Hex()
	}

	return nil
}
