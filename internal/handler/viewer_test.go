package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliyamo/health-member-services/internal/config"
	"github.com/iliyamo/health-member-services/internal/repository"
)

func TestSummary(t *testing.T) {
	store := repository.NewMemoryStore()
	h := NewViewerHandler(testEnv(config.StatusStrict, nil), repository.NewHealthSummaryRepo(store))

	c, rec := newContext(http.MethodGet, "/", "")
	require.NoError(t, h.Summary(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	ctx := context.Background()
	_, err := store.InsertOne(ctx, repository.CollectionHealth, bson.M{
		"_id": "h1", "average_heart_rate": 128, "duration": 900, "user_id": "secret",
	})
	require.NoError(t, err)
	_, err = store.InsertOne(ctx, repository.CollectionHealth, bson.M{"_id": "h2", "distance": 4})
	require.NoError(t, err)

	c, rec = newContext(http.MethodGet, "/", "")
	require.NoError(t, h.Summary(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"_id":"h1","average_heart_rate":128},{"_id":"h2"}]`, rec.Body.String())

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	for _, doc := range got {
		assert.NotContains(t, doc, "duration")
		assert.NotContains(t, doc, "distance")
		assert.NotContains(t, doc, "user_id")
	}
}

func TestSummaryStorageFailure(t *testing.T) {
	h := NewViewerHandler(testEnv(config.StatusStrict, nil), repository.NewHealthSummaryRepo(failingStore{}))
	c, rec := newContext(http.MethodGet, "/", "")

	require.NoError(t, h.Summary(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", rec.Body.String())
}

func TestIdentity(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", "")
	require.NoError(t, Identity("This is user management system")(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "This is user management system", rec.Body.String())
}

func TestKindStatus(t *testing.T) {
	cases := []struct {
		kind   Kind
		strict int
		legacy int
	}{
		{Success, http.StatusOK, http.StatusOK},
		{Created, http.StatusCreated, http.StatusOK},
		{ValidationError, http.StatusBadRequest, http.StatusOK},
		{AuthError, http.StatusUnauthorized, http.StatusOK},
		{NotFound, http.StatusNotFound, http.StatusOK},
		{InternalError, http.StatusInternalServerError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.strict, tc.kind.Status(config.StatusStrict))
		assert.Equal(t, tc.legacy, tc.kind.Status(config.StatusLegacy))
	}
}
