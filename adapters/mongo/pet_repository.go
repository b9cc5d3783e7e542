package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/be-capable/realdog-server/domain"
	"github.com/be-capable/realdog-server/domain/entities"
	"github.com/be-capable/realdog-server/domain/repositories"
)

type PetRepository struct {
	collection *mongo.Collection
}

// NewPetRepository creates a read-only view over the pets collection.
func NewPetRepository(db *mongo.Database) repositories.PetRepository {
	return &PetRepository{
		collection: db.Collection("pets"),
	}
}

// GetByID implements repositories.PetRepository
func (r *PetRepository) GetByID(ctx context.Context, id string) (*entities.Pet, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc struct {
		ID      primitive.ObjectID `bson:"_id"`
		OwnerID string             `bson:"owner_id"`
		Name    string             `bson:"name"`
		BreedID string             `bson:"breed_id"`
	}
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}

	return &entities.Pet{
		ID:      doc.ID.Hex(),
		OwnerID: doc.OwnerID,
		Name:    doc.Name,
		BreedID: doc.BreedID,
	}, nil
}
