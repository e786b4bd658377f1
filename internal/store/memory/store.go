// Package memory is a map-backed store that mirrors the postgres store's
// error contract exactly.
package memory

import (
	"context"
	"sync"

	"notifsync/internal/domain"
	"notifsync/internal/store"
)

type Store struct {
	mu      sync.Mutex
	records map[string]domain.Notification // keyed by externalId
}

func New() *Store {
	return &Store{records: make(map[string]domain.Notification)}
}

func (s *Store) CreateNotification(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[n.ExternalID]; ok {
		return domain.ErrDuplicateExternalID
	}
	s.records[n.ExternalID] = n
	return nil
}

func (s *Store) FindByExternalID(_ context.Context, externalID string) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[externalID]
	if !ok {
		return domain.Notification{}, domain.ErrNotFound
	}
	return n, nil
}

func (s *Store) UpdateStatus(_ context.Context, in store.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[in.ExternalID]
	if !ok {
		return domain.ErrNotFound
	}
	n.Status = domain.Status(in.Status)
	n.Timestamp = in.Timestamp
	s.records[in.ExternalID] = n
	return nil
}
