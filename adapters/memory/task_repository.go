// Package memory provides in-memory adapter implementations. They back the
// service when no Mongo or S3 configuration is present and double as test
// fixtures.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
)

// TaskRepository is a map-backed task store guarded by a RWMutex. Records
// are copied on the way in and out so concurrent runners and pollers never
// share a struct.
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*entities.Task
}

var _ repositories.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]*entities.Task)}
}

func (m *TaskRepository) Create(_ context.Context, task *entities.Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *TaskRepository) GetByID(_ context.Context, id string) (*entities.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, exists := m.tasks[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	taskCopy := *task
	return &taskCopy, nil
}

func (m *TaskRepository) Update(_ context.Context, task *entities.Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tasks[task.ID]; !exists {
		return domain.ErrNotFound
	}
	task.UpdatedAt = time.Now()

	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}
