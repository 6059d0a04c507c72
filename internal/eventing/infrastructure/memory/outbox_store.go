// Package memory provides an in-memory outbox store for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"

	"paystream/internal/eventing"
)

type record struct {
	id       string
	envelope eventing.Envelope
	status   string
	attempts int
	seq      int
}

// OutboxStore keeps outbox records in memory.
type OutboxStore struct {
	mu      sync.Mutex
	records map[string]*record
	nextSeq int
}

// NewOutboxStore constructs an empty outbox store.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{records: make(map[string]*record)}
}

// Insert writes an envelope as a pending record.
func (s *OutboxStore) Insert(_ context.Context, env eventing.Envelope) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := eventing.NewEventID()
	s.nextSeq++
	s.records[id] = &record{id: id, envelope: env, status: "pending", seq: s.nextSeq}
	return id, nil
}

// ListPending returns pending records in insertion order.
func (s *OutboxStore) ListPending(_ context.Context, limit int) ([]eventing.OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var pending []*record
	for _, rec := range s.records {
		if rec.status == "pending" {
			pending = append(pending, rec)
		}
	}
	for i := 1; i < len(pending); i++ {
		for j := i; j > 0 && pending[j-1].seq > pending[j].seq; j-- {
			pending[j-1], pending[j] = pending[j], pending[j-1]
		}
	}
	if len(pending) > limit {
		pending = pending[:limit]
	}
	result := make([]eventing.OutboxRecord, 0, len(pending))
	for _, rec := range pending {
		result = append(result, eventing.OutboxRecord{ID: rec.id, Envelope: rec.envelope})
	}
	return result, nil
}

// MarkSent marks a record as sent.
func (s *OutboxStore) MarkSent(_ context.Context, id string) error {
	return s.markStatus(id, "sent")
}

// MarkFailed marks a record as failed.
func (s *OutboxStore) MarkFailed(_ context.Context, id string) error {
	return s.markStatus(id, "failed")
}

func (s *OutboxStore) markStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		rec.status = status
		rec.attempts++
	}
	return nil
}
