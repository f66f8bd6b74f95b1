// pkg/store/memory.go
package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBlobStore is an in-memory BlobStore used by tests and local runs
type MemoryBlobStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory blob store
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{buckets: make(map[string]map[string][]byte)}
}

// Get reads the full contents of an object
func (s *MemoryBlobStore) Get(_ context.Context, bucket, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("bucket %q does not exist", bucket)
	}
	data, ok := objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s/%s does not exist", bucket, name)
	}
	return append([]byte(nil), data...), nil
}

// Put writes an object. The bucket must exist first, matching the real
// store's behavior.
func (s *MemoryBlobStore) Put(_ context.Context, bucket, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return fmt.Errorf("bucket %q does not exist", bucket)
	}
	objects[name] = append([]byte(nil), data...)
	return nil
}

// Exists reports whether a bucket exists
func (s *MemoryBlobStore) Exists(_ context.Context, bucket string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[bucket]
	return ok, nil
}

// Create creates a bucket
func (s *MemoryBlobStore) Create(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string][]byte)
	}
	return nil
}

// MemoryDocumentStore is an in-memory DocumentStore used by tests. The
// optional failure hooks let tests exercise the degraded insert paths.
type MemoryDocumentStore struct {
	mu          sync.Mutex
	collections map[string][]map[string]interface{}

	// InsertManyErr, when set, makes every InsertMany call fail
	InsertManyErr error
	// InsertOneErrFor, when set, can fail individual InsertOne calls
	InsertOneErrFor func(doc map[string]interface{}) error
}

// NewMemoryDocumentStore creates an empty in-memory document store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{collections: make(map[string][]map[string]interface{})}
}

// Upsert replaces the document whose keyField equals keyValue, appending
// it when absent
func (s *MemoryDocumentStore) Upsert(_ context.Context, collection, keyField string, keyValue interface{}, doc map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, existing := range docs {
		if existing[keyField] == keyValue {
			docs[i] = cloneDoc(doc)
			return nil
		}
	}
	s.collections[collection] = append(docs, cloneDoc(doc))
	return nil
}

// InsertMany appends all documents, or fails wholesale when the failure
// hook is set
func (s *MemoryDocumentStore) InsertMany(_ context.Context, collection string, docs []map[string]interface{}) error {
	if s.InsertManyErr != nil {
		return s.InsertManyErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.collections[collection] = append(s.collections[collection], cloneDoc(doc))
	}
	return nil
}

// InsertOne appends a single document
func (s *MemoryDocumentStore) InsertOne(_ context.Context, collection string, doc map[string]interface{}) error {
	if s.InsertOneErrFor != nil {
		if err := s.InsertOneErrFor(doc); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], cloneDoc(doc))
	return nil
}

// Collection returns a copy of the stored documents for assertions
func (s *MemoryDocumentStore) Collection(name string) []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[name]
	out := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		out[i] = cloneDoc(doc)
	}
	return out
}

func cloneDoc(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
