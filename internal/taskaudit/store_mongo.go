package taskaudit

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"regsync/pkg/platform/sentinel"
)

// CollectionName holds task audit records, kept separate from the record
// collection so operator queries never scan compliance data.
const CollectionName = "tasks"

// Mongo implements Store on a MongoDB collection.
type Mongo struct {
	coll *mongo.Collection
}

// NewMongo creates a Mongo-backed task store.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: db.Collection(CollectionName)}
}

func (s *Mongo) Save(ctx context.Context, rec *Record) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save task record: %w", err)
	}
	return nil
}

func (s *Mongo) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task record: %w", err)
	}
	return &rec, nil
}
