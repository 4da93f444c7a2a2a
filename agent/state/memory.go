package state

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps run state in process. Values are stored encoded so
// callers never share mutable state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, runID string) (*RunState, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, ErrInvalidRun
	}
	s.mu.RLock()
	payload, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeRunState(payload)
}

func (s *MemoryStore) Save(_ context.Context, st *RunState) error {
	payload, err := encodeRunState(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.runs[strings.TrimSpace(st.RunID)] = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, runID string) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ErrInvalidRun
	}
	s.mu.Lock()
	delete(s.runs, runID)
	s.mu.Unlock()
	return nil
}
