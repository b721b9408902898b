package repository

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store used by tests and local runs without a
// database.  Documents go through a BSON round trip on every write and read,
// so callers observe the same types the driver would hand back (int32/int64,
// primitive.ObjectID, primitive.A).
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]bson.Raw
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]bson.Raw)}
}

// FindAll decodes every stored document of collection into out.
func (s *MemoryStore) FindAll(ctx context.Context, collection string, projection *Projection, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("find %s: out must be a pointer to a slice, got %T", collection, out)
	}
	s.mu.RLock()
	raws := append([]bson.Raw(nil), s.collections[collection]...)
	s.mu.RUnlock()

	sv := reflect.MakeSlice(rv.Elem().Type(), 0, len(raws))
	for _, raw := range raws {
		doc, err := project(raw, projection)
		if err != nil {
			return fmt.Errorf("project %s: %w", collection, err)
		}
		elem := reflect.New(sv.Type().Elem())
		if err := bson.Unmarshal(doc, elem.Interface()); err != nil {
			return fmt.Errorf("decode %s: %w", collection, err)
		}
		sv = reflect.Append(sv, elem.Elem())
	}
	rv.Elem().Set(sv)
	return nil
}

// FindOne decodes the first stored document whose fields equal every entry of
// filter.
func (s *MemoryStore) FindOne(ctx context.Context, collection string, filter bson.M, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, raw := range s.collections[collection] {
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return false, fmt.Errorf("decode %s: %w", collection, err)
		}
		if !matches(doc, filter) {
			continue
		}
		if err := bson.Unmarshal(raw, out); err != nil {
			return false, fmt.Errorf("decode %s: %w", collection, err)
		}
		return true, nil
	}
	return false, nil
}

// InsertOne stores a copy of doc, adding a generated ObjectID when _id is
// absent.  doc itself is not modified.
func (s *MemoryStore) InsertOne(ctx context.Context, collection string, doc bson.M) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, ok := doc["_id"]
	if !ok {
		id = primitive.NewObjectID()
	}
	stored := make(bson.M, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["_id"] = id
	raw, err := bson.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], raw)
	s.mu.Unlock()
	return id, nil
}

// project applies p to raw with MongoDB's inclusion/exclusion rules.
func project(raw bson.Raw, p *Projection) (bson.Raw, error) {
	if p == nil {
		return raw, nil
	}
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		keep[f] = true
	}
	out := bson.D{}
	for _, e := range doc {
		switch {
		case e.Key == "_id":
			if p.IncludeID {
				out = append(out, e)
			}
		case len(p.Fields) == 0 || keep[e.Key]:
			out = append(out, e)
		}
	}
	return bson.Marshal(out)
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok {
			if want == nil {
				continue
			}
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares numbers by value regardless of their Go type, the way
// the server compares BSON numerics.
func valuesEqual(a, b any) bool {
	fa, aNum := asFloat(a)
	fb, bNum := asFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
