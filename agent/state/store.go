package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStateNotFound = errors.New("run state not found")
	ErrNilRunState   = errors.New("run state is nil")
	ErrInvalidRun    = errors.New("run id is empty")
	// ErrStoreBackend wraps failures reported by a remote checkpoint store.
	ErrStoreBackend = errors.New("run store backend failed")
)

// Store persists crew run checkpoints.
type Store interface {
	Load(ctx context.Context, runID string) (*RunState, error)
	Save(ctx context.Context, st *RunState) error
	Delete(ctx context.Context, runID string) error
}

// encodeRunState normalizes st and returns its JSON payload.
func encodeRunState(st *RunState) ([]byte, error) {
	if st == nil {
		return nil, ErrNilRunState
	}
	if strings.TrimSpace(st.RunID) == "" {
		return nil, ErrInvalidRun
	}
	if st.Version <= 0 {
		st.Version = 1
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	} else {
		st.UpdatedAt = st.UpdatedAt.UTC()
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal run state: %w", err)
	}
	return payload, nil
}

func decodeRunState(payload []byte) (*RunState, error) {
	var st RunState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("unmarshal run state: %w", err)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run state loaded from store: %w", err)
	}
	return &st, nil
}
