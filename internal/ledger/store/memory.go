package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"scanpoint/internal/ledger/models"
)

// InMemory is a slice-backed scan store for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	events  []models.ScanEvent
	nextSeq int64
}

// NewInMemory returns an empty in-memory scan store.
func NewInMemory() *InMemory {
	return &InMemory{nextSeq: 1}
}

// Append adds one scan event and assigns the next sequence number.
func (s *InMemory) Append(_ context.Context, identifier string, ts time.Time) (models.ScanEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event := models.ScanEvent{Seq: s.nextSeq, Identifier: identifier, Timestamp: ts}
	s.nextSeq++
	s.events = append(s.events, event)
	return event, nil
}

// ListRecent returns up to limit events, newest first. Equal timestamps
// order by descending sequence so the later insertion wins.
func (s *InMemory) ListRecent(_ context.Context, limit int) ([]models.ScanEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.ScanEvent{}, s.events...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Seq > out[j].Seq
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListAll returns every event in insertion order.
func (s *InMemory) ListAll(_ context.Context) ([]models.ScanEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ScanEvent{}, s.events...), nil
}

// CountByIdentifier returns the number of events per identifier.
func (s *InMemory) CountByIdentifier(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int, len(s.events))
	for _, event := range s.events {
		counts[event.Identifier]++
	}
	return counts, nil
}

// Clear removes every event. Sequence numbers keep climbing afterwards so a
// reader never sees a sequence reused.
func (s *InMemory) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	return nil
}
