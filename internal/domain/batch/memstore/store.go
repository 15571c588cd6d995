// Package memstore is the in-process batch.Store implementation,
// mirroring bidbook/memstore's single-RWMutex convention.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/batch"
)

type Store struct {
	mu      sync.RWMutex
	records []*batch.Record
}

func New() *Store {
	return &Store{}
}

func (s *Store) Insert(ctx context.Context, rec *batch.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *Store) CloseOpen(ctx context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Open() {
			validUntil := t
			r.ValidUntil = &validUntil
		}
	}
	return nil
}

func (s *Store) Open(ctx context.Context) (*batch.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.Open() {
			return r, nil
		}
	}
	return nil, nil
}

func (s *Store) AtInstant(ctx context.Context, t time.Time) (*batch.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if !r.ValidFrom.After(t) && (r.ValidUntil == nil || r.ValidUntil.After(t)) {
			return r, nil
		}
	}
	return nil, nil
}

func (s *Store) History(ctx context.Context, from, to time.Time) ([]*batch.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*batch.Record
	for _, r := range s.records {
		if r.ValidFrom.Before(to) && (r.ValidUntil == nil || r.ValidUntil.After(from)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ValidFrom.Before(out[j].ValidFrom) })
	return out, nil
}
