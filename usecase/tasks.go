package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
)

// TaskRunFunc executes one background job and returns the serialized result
// payload.
type TaskRunFunc func(ctx context.Context) (string, error)

// TaskCoordinator runs pipeline invocations that would outlive an HTTP
// request. Tasks are created PENDING, picked up by a dedicated goroutine,
// and written exactly once with a terminal status. Cancellation mid-flight
// is not supported; a scheduled task runs to completion or failure.
type TaskCoordinator struct {
	tasks      repositories.TaskRepository
	runTimeout time.Duration
	logger     *zap.Logger
}

func NewTaskCoordinator(tasks repositories.TaskRepository, runTimeout time.Duration, logger *zap.Logger) *TaskCoordinator {
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	return &TaskCoordinator{tasks: tasks, runTimeout: runTimeout, logger: logger}
}

// Submit persists a PENDING task and schedules run on its own goroutine.
// The returned task id is valid for polling immediately; the submitting
// caller never blocks on the run.
func (c *TaskCoordinator) Submit(ctx context.Context, ownerID, petID, kind string, run TaskRunFunc) (string, error) {
	task := &entities.Task{
		OwnerID: ownerID,
		PetID:   petID,
		Kind:    kind,
		Status:  entities.TaskPending,
	}
	if err := c.tasks.Create(ctx, task); err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	// Detached from the request context: the task outlives the request.
	go c.execute(task.ID, run)

	return task.ID, nil
}

func (c *TaskCoordinator) execute(taskID string, run TaskRunFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), c.runTimeout)
	defer cancel()

	task, err := c.tasks.GetByID(ctx, taskID)
	if err != nil {
		c.logger.Error("task vanished before execution",
			zap.String("task_id", taskID),
			zap.Error(err))
		return
	}
	if !task.CanTransitionTo(entities.TaskProcessing) {
		c.logger.Error("task not in a runnable state",
			zap.String("task_id", taskID),
			zap.String("status", string(task.Status)))
		return
	}
	task.Status = entities.TaskProcessing
	if err := c.tasks.Update(ctx, task); err != nil {
		c.logger.Error("failed to mark task processing",
			zap.String("task_id", taskID),
			zap.Error(err))
		return
	}

	result, runErr := run(ctx)

	if runErr != nil {
		task.Status = entities.TaskFailed
		task.ErrorMessage = runErr.Error()
		c.logger.Error("task failed",
			zap.String("task_id", taskID),
			zap.Error(runErr))
	} else {
		task.Status = entities.TaskCompleted
		task.Result = result
		c.logger.Info("task completed", zap.String("task_id", taskID))
	}

	// Fresh context: the run context may already be expired, and the
	// terminal write must still land.
	writeCtx, writeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer writeCancel()
	if err := c.tasks.Update(writeCtx, task); err != nil {
		c.logger.Error("failed to write terminal task status",
			zap.String("task_id", taskID),
			zap.String("status", string(task.Status)),
			zap.Error(err))
	}
}

// Status returns the task after an owner check. Unknown ids yield NotFound;
// ids owned by someone else yield Forbidden without exposing contents.
func (c *TaskCoordinator) Status(ctx context.Context, taskID, ownerID string) (*entities.Task, error) {
	task, err := c.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return task, nil
}
