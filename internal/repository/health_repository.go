package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliyamo/health-member-services/internal/model"
)

// HealthHistoryRepo reads and writes the health-history collection.
type HealthHistoryRepo struct{ store Store }

func NewHealthHistoryRepo(store Store) *HealthHistoryRepo { return &HealthHistoryRepo{store: store} }

// List returns every health-history document unchanged.
func (r *HealthHistoryRepo) List(ctx context.Context) ([]bson.M, error) {
	var out []bson.M
	if err := r.store.FindAll(ctx, CollectionHealthHistory, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts doc.  doc["user_id"] must already be an ObjectID.
func (r *HealthHistoryRepo) Create(ctx context.Context, doc bson.M) (any, error) {
	return r.store.InsertOne(ctx, CollectionHealthHistory, doc)
}

// summaryProjection is the only shape the viewer may expose.
var summaryProjection = &Projection{Fields: []string{"average_heart_rate"}, IncludeID: true}

// HealthSummaryRepo serves the read-only viewer over the health collection.
type HealthSummaryRepo struct{ store Store }

func NewHealthSummaryRepo(store Store) *HealthSummaryRepo { return &HealthSummaryRepo{store: store} }

// List returns _id and average_heart_rate of every health document.
func (r *HealthSummaryRepo) List(ctx context.Context) ([]model.HealthSummary, error) {
	var out []model.HealthSummary
	if err := r.store.FindAll(ctx, CollectionHealth, summaryProjection, &out); err != nil {
		return nil, err
	}
	return out, nil
}
