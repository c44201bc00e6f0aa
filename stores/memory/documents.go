package memory

import (
	"context"
	"fmt"
	"json-storage/core"
	"sync"
)

type documentStore struct {
	mu        sync.RWMutex
	documents map[string][]byte
}

func NewDocumentStore() core.DocumentStore {
	return &documentStore{documents: make(map[string][]byte)}
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	if err := core.ValidateID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
	}
	return &core.Document{ID: id, Data: append([]byte(nil), val...)}, nil
}

func (s *documentStore) Create(ctx context.Context, document *core.Document) (string, error) {
	data, err := validate(document)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[document.ID]; ok {
		return "", fmt.Errorf("document with id %s: %w", document.ID, core.ErrAlreadyExists)
	}
	s.documents[document.ID] = data
	return document.ID, nil
}

func (s *documentStore) Update(ctx context.Context, document *core.Document) (string, error) {
	data, err := validate(document)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[document.ID]; !ok {
		return "", fmt.Errorf("document with id %s: %w", document.ID, core.ErrNotFound)
	}
	s.documents[document.ID] = data
	return document.ID, nil
}

func (s *documentStore) Delete(ctx context.Context, id string) (string, error) {
	if err := core.ValidateID(id); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return "", fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
	}
	delete(s.documents, id)
	return id, nil
}

func validate(document *core.Document) ([]byte, error) {
	if err := core.ValidateID(document.ID); err != nil {
		return nil, err
	}
	return core.CompactData(document.Data)
}
