package memory

import (
	"context"
	"sync"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
)

// PetRepository is a seedable in-memory pet store. In standalone deployments
// pets are registered at startup; the main application owns real pet CRUD.
type PetRepository struct {
	mu   sync.RWMutex
	pets map[string]*entities.Pet
}

var _ repositories.PetRepository = (*PetRepository)(nil)

func NewPetRepository() *PetRepository {
	return &PetRepository{pets: make(map[string]*entities.Pet)}
}

// Seed registers a pet record.
func (m *PetRepository) Seed(pet entities.Pet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pets[pet.ID] = &pet
}

func (m *PetRepository) GetByID(_ context.Context, id string) (*entities.Pet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pet, exists := m.pets[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	petCopy := *pet
	return &petCopy, nil
}
