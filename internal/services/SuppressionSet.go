package services

import (
	"sync"

	"github.com/google/uuid"
)

// SuppressionSet holds ids of scans submitted by this client. It only grows.
type SuppressionSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewSuppressionSet() *SuppressionSet {
	return &SuppressionSet{ids: make(map[string]struct{})}
}

func (s *SuppressionSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *SuppressionSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *SuppressionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// NewClientScanID returns a candidate id for a locally submitted scan.
func NewClientScanID() string {
	return uuid.NewString()
}
