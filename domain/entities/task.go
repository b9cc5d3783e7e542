package entities

import "time"

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskProcessing TaskStatus = "PROCESSING"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
)

// Terminal reports whether the status can no longer change.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Task tracks one long-running translation request. It is created PENDING,
// flipped to PROCESSING when the background runner picks it up, and receives
// exactly one terminal write (COMPLETED with a result payload, or FAILED with
// an error message).
type Task struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	OwnerID      string     `json:"owner_id" bson:"owner_id"`
	PetID        string     `json:"pet_id" bson:"pet_id"`
	Kind         string     `json:"kind" bson:"kind"`
	Status       TaskStatus `json:"status" bson:"status"`
	Result       string     `json:"result,omitempty" bson:"result,omitempty"`
	ErrorMessage string     `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// CanTransitionTo validates the PENDING -> PROCESSING -> terminal lifecycle.
func (t *Task) CanTransitionTo(next TaskStatus) bool {
	if t.Status.Terminal() {
		return false
	}
	switch next {
	case TaskProcessing:
		return t.Status == TaskPending
	case TaskCompleted, TaskFailed:
		return t.Status == TaskProcessing
	default:
		return false
	}
}
