package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names shared by the three services.
const (
	CollectionMembers       = "members"
	CollectionHealthHistory = "health-history"
	CollectionHealth        = "health"
)

// Store performs single-document operations against named collections.
// Results are decoded into out the same way the MongoDB driver decodes a
// cursor: FindAll expects a pointer to a slice, FindOne a pointer to a
// document or struct.
type Store interface {
	// FindAll decodes every document of collection into out, restricted to
	// projection when it is non-nil.  An empty collection yields an empty,
	// non-nil slice.
	FindAll(ctx context.Context, collection string, projection *Projection, out any) error
	// FindOne decodes the first document matching filter into out.  A miss
	// is reported as found=false with a nil error.
	FindOne(ctx context.Context, collection string, filter bson.M, out any) (found bool, err error)
	// InsertOne stores doc as given and returns its _id.  A generated
	// ObjectID is used when doc has none.
	InsertOne(ctx context.Context, collection string, doc bson.M) (id any, err error)
}

// Projection restricts a read to Fields.  The _id field is returned only
// when IncludeID is set; it is never implied.
type Projection struct {
	Fields    []string
	IncludeID bool
}

// Document renders the projection in MongoDB form.  A projection with no
// fields is an exclusion projection and returns every field but _id (or
// every field when IncludeID is set).
func (p *Projection) Document() bson.D {
	id := 0
	if p.IncludeID {
		id = 1
	}
	doc := bson.D{{Key: "_id", Value: id}}
	for _, f := range p.Fields {
		if f == "_id" {
			continue
		}
		doc = append(doc, bson.E{Key: f, Value: 1})
	}
	return doc
}

// ToObjectID maps an identifier received as text onto the native ObjectID.
// Values that already are ObjectIDs pass through unchanged.
func ToObjectID(v any) (primitive.ObjectID, error) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, nil
	case string:
		oid, err := primitive.ObjectIDFromHex(t)
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, t)
		}
		return oid, nil
	}
	return primitive.NilObjectID, fmt.Errorf("%w: unsupported type %T", ErrInvalidID, v)
}

// IDString renders an inserted _id for logs and events.
func IDString(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
