package storage

import (
	"context"
	"path"
	"sync"

	"github.com/google/uuid"
)

// StubAttachmentStore is an in-memory AttachmentStore for development
// and tests, used when object storage is disabled in configuration.
type StubAttachmentStore struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string][]byte
}

// NewStubAttachmentStore creates an empty stub store.
func NewStubAttachmentStore() *StubAttachmentStore {
	return &StubAttachmentStore{
		BaseURL: "https://storage.invalid",
		objects: make(map[string][]byte),
	}
}

// UploadAttachment validates like the real store and keeps the bytes
// in memory.
func (s *StubAttachmentStore) UploadAttachment(_ context.Context, storeID, recordID uuid.UUID, data []byte, contentType string) (string, error) {
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	key := path.Join("stores", storeID.String(), "ledger", recordID.String(), uuid.New().String()+ext)

	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return s.BaseURL + "/" + key, nil
}

// DeleteAttachment forgets a stored object.
func (s *StubAttachmentStore) DeleteAttachment(_ context.Context, fileURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(fileURL) > len(s.BaseURL)+1 {
		delete(s.objects, fileURL[len(s.BaseURL)+1:])
	}
	return nil
}

// Len reports the number of stored objects, for tests.
func (s *StubAttachmentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

var _ AttachmentStore = (*StubAttachmentStore)(nil)
