package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliyamo/health-member-services/internal/model"
)

// MemberRepo reads and writes the members collection.
type MemberRepo struct{ store Store }

func NewMemberRepo(store Store) *MemberRepo { return &MemberRepo{store: store} }

// List returns every member document unchanged, digest included.
func (r *MemberRepo) List(ctx context.Context) ([]bson.M, error) {
	var out []bson.M
	if err := r.store.FindAll(ctx, CollectionMembers, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts doc.  The caller must already have replaced the plaintext
// password with its digest.
func (r *MemberRepo) Create(ctx context.Context, doc bson.M) (any, error) {
	return r.store.InsertOne(ctx, CollectionMembers, doc)
}

// GetByUsername returns the first member whose username equals username.
// Usernames are not unique; whichever document the store yields first wins.
func (r *MemberRepo) GetByUsername(ctx context.Context, username string) (model.Member, bool, error) {
	var m model.Member
	found, err := r.store.FindOne(ctx, CollectionMembers, bson.M{"username": username}, &m)
	return m, found, err
}
