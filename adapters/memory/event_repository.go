package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
)

// EventRepository keeps translation events in memory. Events are append-only.
type EventRepository struct {
	mu     sync.RWMutex
	events []*entities.DogEvent
}

var _ repositories.EventRepository = (*EventRepository)(nil)

func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

func (m *EventRepository) Create(_ context.Context, event *entities.DogEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedAt = time.Now()

	eventCopy := *event
	m.events = append(m.events, &eventCopy)
	return nil
}

// ByPet returns the stored events for a pet, oldest first. Used by tests.
func (m *EventRepository) ByPet(petID string) []*entities.DogEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*entities.DogEvent
	for _, e := range m.events {
		if e.PetID == petID {
			eventCopy := *e
			out = append(out, &eventCopy)
		}
	}
	return out
}
