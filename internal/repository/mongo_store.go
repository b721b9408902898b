package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a MongoDB database handle.  The handle is
// created once at startup and shared by all requests.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore wraps db.  It performs no I/O.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// FindAll decodes every document of collection into out.
func (s *MongoStore) FindAll(ctx context.Context, collection string, projection *Projection, out any) error {
	opts := options.Find()
	if projection != nil {
		opts.SetProjection(projection.Document())
	}
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	ensureNonNilSlice(out)
	return nil
}

// FindOne decodes the first match of filter into out.
func (s *MongoStore) FindOne(ctx context.Context, collection string, filter bson.M, out any) (bool, error) {
	err := s.db.Collection(collection).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find one %s: %w", collection, err)
	}
	return true, nil
}

// InsertOne stores doc and returns its _id.
func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc bson.M) (any, error) {
	res, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	return res.InsertedID, nil
}

// ensureNonNilSlice replaces a nil slice behind out with an empty one so
// that empty collections encode as [] rather than null.
func ensureNonNilSlice(out any) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	sv := rv.Elem()
	if sv.Kind() == reflect.Slice && sv.IsNil() {
		sv.Set(reflect.MakeSlice(sv.Type(), 0, 0))
	}
}
