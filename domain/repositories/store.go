package repositories

import (
	"context"

	"github.com/be-capable/realdog-server/domain/entities"
)

// TaskRepository is the task-record store. Each task is written by exactly
// one background runner and read by many pollers.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id string) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
}

// EventRepository stores translation event records.
type EventRepository interface {
	Create(ctx context.Context, event *entities.DogEvent) error
}

// PetRepository reads pet records for ownership checks. Pet CRUD lives in
// the surrounding application.
type PetRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Pet, error)
}
