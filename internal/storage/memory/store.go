package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/fleetdocs/backend/internal/storage"
)

// Store keeps bson documents in process memory. It backs development runs
// and tests with the same encoding rules as the MongoDB store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]bson.M
	order       map[string][]string
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]bson.M),
		order:       make(map[string][]string),
	}
}

func toM(v any) (bson.M, error) {
	b, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return m, nil
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

func (s *Store) find(collection string, filter storage.Filter) ([]bson.M, error) {
	f, err := toM(bson.M(filter))
	if err != nil {
		return nil, err
	}
	var out []bson.M
	docs := s.collections[collection]
	for _, id := range s.order[collection] {
		if doc, ok := docs[id]; ok && matches(doc, f) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Store) FindOne(_ context.Context, collection string, filter storage.Filter, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.find(collection, filter)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return storage.ErrNotFound
	}
	b, err := bson.Marshal(docs[0])
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return bson.Unmarshal(b, out)
}

func (s *Store) FindAll(_ context.Context, collection string, filter storage.Filter, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.find(collection, filter)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []bson.M{}
	}
	t, data, err := bson.MarshalValue(docs)
	if err != nil {
		return fmt.Errorf("failed to encode documents: %w", err)
	}
	return bson.RawValue{Type: t, Value: data}.Unmarshal(out)
}

func (s *Store) Create(_ context.Context, collection string, doc any) error {
	m, err := toM(doc)
	if err != nil {
		return err
	}
	id, ok := m["_id"].(string)
	if !ok || id == "" {
		return fmt.Errorf("document has no string _id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]bson.M)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return fmt.Errorf("duplicate _id %q in %s", id, collection)
	}
	docs[id] = m
	s.order[collection] = append(s.order[collection], id)
	return nil
}

func (s *Store) Update(_ context.Context, collection, id string, fields map[string]any) error {
	set, err := toM(bson.M(fields))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return storage.ErrNotFound
	}
	updated := make(bson.M, len(doc)+len(set))
	for k, v := range doc {
		updated[k] = v
	}
	for k, v := range set {
		updated[k] = v
	}
	s.collections[collection][id] = updated
	return nil
}

func (s *Store) Replace(_ context.Context, collection, id string, doc any) error {
	m, err := toM(doc)
	if err != nil {
		return err
	}
	m["_id"] = id

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return storage.ErrNotFound
	}
	s.collections[collection][id] = m
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if _, ok := docs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(docs, id)
	order := s.order[collection]
	for j, v := range order {
		if v == id {
			s.order[collection] = append(order[:j:j], order[j+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

var _ storage.Store = (*Store)(nil)
