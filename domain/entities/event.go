package entities

import "time"

// TranslationMode distinguishes the two pipeline directions.
type TranslationMode string

const (
	ModeDogToHuman TranslationMode = "DOG_TO_HUMAN"
	ModeHumanToDog TranslationMode = "HUMAN_TO_DOG"
)

// DogEvent is the persisted record of one translation, either direction.
type DogEvent struct {
	ID              string           `json:"id" bson:"_id,omitempty"`
	PetID           string           `json:"pet_id" bson:"pet_id"`
	Mode            TranslationMode  `json:"mode" bson:"mode"`
	EventType       VocalizationType `json:"event_type" bson:"event_type"`
	StateType       string           `json:"state_type,omitempty" bson:"state_type,omitempty"`
	ContextType     string           `json:"context_type,omitempty" bson:"context_type,omitempty"`
	Confidence      *float64         `json:"confidence,omitempty" bson:"confidence,omitempty"`
	AudioURL        string           `json:"audio_url" bson:"audio_url"`
	OutputAudioURL  string           `json:"output_audio_url,omitempty" bson:"output_audio_url,omitempty"`
	MeaningText     string           `json:"meaning_text,omitempty" bson:"meaning_text,omitempty"`
	InputTranscript string           `json:"input_transcript,omitempty" bson:"input_transcript,omitempty"`
	CreatedAt       time.Time        `json:"created_at" bson:"created_at"`
}

// Pet is the ownership subject of every translation call. Pet CRUD itself
// lives outside this service; we only read.
type Pet struct {
	ID      string `json:"id" bson:"_id,omitempty"`
	OwnerID string `json:"owner_id" bson:"owner_id"`
	Name    string `json:"name" bson:"name"`
	BreedID string `json:"breed_id,omitempty" bson:"breed_id,omitempty"`
}
