package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"go.mongodb.org/mongo-driver/mongo/options"

	"regsync/internal/records/models"
	"regsync/pkg/platform/sentinel"
)

// CollectionName is the single logical collection holding masters,
// flavours and document entities.
const CollectionName = "records"

// Mongo implements Store on a MongoDB collection.
type Mongo struct {
	coll *mongo.Collection
}

// NewMongo creates a Mongo-backed record store.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique index backing upsert idempotency.
// Two concurrent imports of the same external id race on insert; the
// loser gets a duplicate-key error instead of a second master.
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "schema", Value: 1},
			{Key: "audience", Value: 1},
			{Key: "sourceRefId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create records index: %w", err)
	}
	return nil
}

func (s *Mongo) FindOne(ctx context.Context, filter Filter) (*models.Record, error) {
	var rec models.Record
	err := s.coll.FindOne(ctx, toBSON(filter)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	return &rec, nil
}

func (s *Mongo) Find(ctx context.Context, filter Filter) ([]*models.Record, error) {
	cursor, err := s.coll.Find(ctx, toBSON(filter))
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*models.Record
	for cursor.Next(ctx) {
		var rec models.Record
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (s *Mongo) Insert(ctx context.Context, rec *models.Record) error {
	_, err := s.coll.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *Mongo) Update(ctx context.Context, rec *models.Record) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Mongo) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// toBSON maps the narrow Filter contract onto a Mongo query. []string
// values become $in clauses.
func toBSON(filter Filter) bson.M {
	query := bson.M{}
	for key, want := range filter {
		switch w := want.(type) {
		case []string:
			query[key] = bson.M{"$in": w}
		default:
			query[key] = w
		}
	}
	return query
}
