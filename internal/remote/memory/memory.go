// Package memory is an in-process remote used by tests and the "memory"
// sync backend.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"finwallet/internal/core"
	"finwallet/internal/remote"
)

var ErrUnavailable = errors.New("memory remote unavailable")

type Store struct {
	mu        sync.Mutex
	records   map[core.SyncEntity]map[string]json.RawMessage
	ops       []core.SyncOperation
	failNext  int
	reachable bool
}

var (
	_ remote.Mirror = (*Store)(nil)
	_ remote.Prober = (*Store)(nil)
)

func New() *Store {
	return &Store{
		records:   map[core.SyncEntity]map[string]json.RawMessage{},
		reachable: true,
	}
}

// Mirror applies op, or fails while FailNext has budget left.
func (s *Store) Mirror(ctx context.Context, op core.SyncOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext > 0 {
		s.failNext--
		return ErrUnavailable
	}

	key, err := remote.PayloadKey(op)
	if err != nil {
		return err
	}
	bucket := s.records[op.Entity]
	if bucket == nil {
		bucket = map[string]json.RawMessage{}
		s.records[op.Entity] = bucket
	}
	switch op.Action {
	case core.ActionDelete:
		delete(bucket, op.Key)
	default:
		if op.Key != "" && op.Key != key {
			delete(bucket, op.Key)
		}
		bucket[key] = append(json.RawMessage(nil), op.Payload...)
	}
	s.ops = append(s.ops, op)
	return nil
}

func (s *Store) IsReachable(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reachable
}

func (s *Store) SetReachable(v bool) {
	s.mu.Lock()
	s.reachable = v
	s.mu.Unlock()
}

// FailNext makes the next n Mirror calls fail.
func (s *Store) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

// Ops returns the operations applied so far, in order.
func (s *Store) Ops() []core.SyncOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.SyncOperation(nil), s.ops...)
}

// Get returns the mirrored record for entity and key.
func (s *Store) Get(entity core.SyncEntity, key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[entity][key]
	return rec, ok
}

func (s *Store) Len(entity core.SyncEntity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[entity])
}
