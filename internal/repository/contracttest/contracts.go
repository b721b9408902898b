// Package contracttest holds the behaviour every repository.Store must
// share, so the in-memory store used by handler tests cannot drift from
// the MongoDB one.
package contracttest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/health-member-services/internal/repository"
)

type CleanupFunc = func()

type StoreFactory func(t *testing.T) (repository.Store, CleanupFunc)

// RunStore exercises find/insert semantics against a fresh store.
func RunStore(t *testing.T, newStore StoreFactory) {
	t.Helper()

	setup := func(t *testing.T) repository.Store {
		store, cleanup := newStore(t)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		return store
	}

	t.Run("EmptyCollection", func(t *testing.T) {
		store := setup(t)
		var docs []bson.M
		require.NoError(t, store.FindAll(context.Background(), "empty", nil, &docs))
		assert.NotNil(t, docs)
		assert.Len(t, docs, 0)
	})

	t.Run("InsertThenFindAll", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()
		for _, name := range []string{"a", "b", "c"} {
			id, err := store.InsertOne(ctx, "things", bson.M{"name": name})
			require.NoError(t, err)
			_, ok := id.(primitive.ObjectID)
			assert.True(t, ok, "generated ids are ObjectIDs, got %T", id)
		}
		var docs []bson.M
		require.NoError(t, store.FindAll(ctx, "things", nil, &docs))
		assert.Len(t, docs, 3)
		for _, d := range docs {
			assert.Contains(t, d, "_id")
			assert.Contains(t, d, "name")
		}
	})

	t.Run("InsertDoesNotMutateInput", func(t *testing.T) {
		store := setup(t)
		doc := bson.M{"name": "a"}
		_, err := store.InsertOne(context.Background(), "things", doc)
		require.NoError(t, err)
		assert.Equal(t, bson.M{"name": "a"}, doc)
	})

	t.Run("ExplicitID", func(t *testing.T) {
		store := setup(t)
		oid := primitive.NewObjectID()
		id, err := store.InsertOne(context.Background(), "things", bson.M{"_id": oid, "name": "a"})
		require.NoError(t, err)
		assert.Equal(t, oid, id)
	})

	t.Run("ProjectionWithID", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()
		_, err := store.InsertOne(ctx, "health", bson.M{"average_heart_rate": 120, "distance": 5, "secret": "x"})
		require.NoError(t, err)

		var docs []bson.M
		p := &repository.Projection{Fields: []string{"average_heart_rate"}, IncludeID: true}
		require.NoError(t, store.FindAll(ctx, "health", p, &docs))
		require.Len(t, docs, 1)
		assert.Len(t, docs[0], 2)
		assert.Contains(t, docs[0], "_id")
		assert.EqualValues(t, 120, docs[0]["average_heart_rate"])
	})

	t.Run("ProjectionWithoutID", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()
		_, err := store.InsertOne(ctx, "health", bson.M{"average_heart_rate": 120, "distance": 5})
		require.NoError(t, err)

		var docs []bson.M
		p := &repository.Projection{Fields: []string{"average_heart_rate"}}
		require.NoError(t, store.FindAll(ctx, "health", p, &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, bson.M{"average_heart_rate": int32(120)}, docs[0])
	})

	t.Run("FindOne", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()
		_, err := store.InsertOne(ctx, "members", bson.M{"username": "ann", "age": 30})
		require.NoError(t, err)
		_, err = store.InsertOne(ctx, "members", bson.M{"username": "bob", "age": 41})
		require.NoError(t, err)

		var got bson.M
		found, err := store.FindOne(ctx, "members", bson.M{"username": "bob"}, &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "bob", got["username"])
		assert.EqualValues(t, 41, got["age"])

		found, err = store.FindOne(ctx, "members", bson.M{"age": int64(30)}, &got)
		require.NoError(t, err)
		assert.True(t, found, "numeric filters match across integer widths")
		assert.Equal(t, "ann", got["username"])
	})

	t.Run("FindOneMiss", func(t *testing.T) {
		store := setup(t)
		var got bson.M
		found, err := store.FindOne(context.Background(), "members", bson.M{"username": "nobody"}, &got)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ObjectIDReference", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()
		memberID, err := store.InsertOne(ctx, "members", bson.M{"username": "ann"})
		require.NoError(t, err)
		oid, err := repository.ToObjectID(repository.IDString(memberID))
		require.NoError(t, err)

		_, err = store.InsertOne(ctx, "health-history", bson.M{"distance": 3, "user_id": oid})
		require.NoError(t, err)

		var byRef bson.M
		found, err := store.FindOne(ctx, "health-history", bson.M{"user_id": memberID}, &byRef)
		require.NoError(t, err)
		assert.True(t, found, "stored user_id matches the member _id")

		var byText bson.M
		found, err = store.FindOne(ctx, "health-history", bson.M{"user_id": oid.Hex()}, &byText)
		require.NoError(t, err)
		assert.False(t, found, "text form does not match a native reference")
	})
}
