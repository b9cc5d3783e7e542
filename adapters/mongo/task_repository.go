package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
)

type TaskRepository struct {
	collection *mongo.Collection
}

// NewTaskRepository creates a new MongoDB task repository
func NewTaskRepository(db *mongo.Database) repositories.TaskRepository {
	return &TaskRepository{
		collection: db.Collection("translation_tasks"),
	}
}

// Create implements repositories.TaskRepository
func (r *TaskRepository) Create(ctx context.Context, task *entities.Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	doc := bson.M{
		"owner_id":   task.OwnerID,
		"pet_id":     task.PetID,
		"kind":       task.Kind,
		"status":     task.Status,
		"result":     task.Result,
		"error":      task.ErrorMessage,
		"created_at": task.CreatedAt,
		"updated_at": task.UpdatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	// Set the generated ID back to the task
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		task.ID = oid.Hex()
	}

	return nil
}

// GetByID implements repositories.TaskRepository
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entities.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc struct {
		ID           primitive.ObjectID  `bson:"_id"`
		OwnerID      string              `bson:"owner_id"`
		PetID        string              `bson:"pet_id"`
		Kind         string              `bson:"kind"`
		Status       entities.TaskStatus `bson:"status"`
		Result       string              `bson:"result"`
		ErrorMessage string              `bson:"error"`
		CreatedAt    time.Time           `bson:"created_at"`
		UpdatedAt    time.Time           `bson:"updated_at"`
	}
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &entities.Task{
		ID:           doc.ID.Hex(),
		OwnerID:      doc.OwnerID,
		PetID:        doc.PetID,
		Kind:         doc.Kind,
		Status:       doc.Status,
		Result:       doc.Result,
		ErrorMessage: doc.ErrorMessage,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

// Update implements repositories.TaskRepository
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	oid, err := primitive.ObjectIDFromHex(task.ID)
	if err != nil {
		return domain.ErrNotFound
	}

	task.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"status":     task.Status,
			"result":     task.Result,
			"error":      task.ErrorMessage,
			"updated_at": task.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}
