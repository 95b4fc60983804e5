package cartstate

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultManagerSize bounds how many session synchronizers stay in memory.
const DefaultManagerSize = 4096

// Manager hands out one activated synchronizer per session. Evicted sessions
// are rebuilt from their persisted cart id on next use.
type Manager struct {
	ops    Operations
	values SessionValues
	locks  *KeyedMutex
	logger *zap.Logger

	sessions *lru.Cache[string, *Synchronizer]
	group    singleflight.Group
}

func NewManager(ops Operations, values SessionValues, size int, logger *zap.Logger) (*Manager, error) {
	if size <= 0 {
		size = DefaultManagerSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions, err := lru.New[string, *Synchronizer](size)
	if err != nil {
		return nil, fmt.Errorf("init session cache: %w", err)
	}
	return &Manager{
		ops:      ops,
		values:   values,
		locks:    NewKeyedMutex(),
		logger:   logger,
		sessions: sessions,
	}, nil
}

// For returns the session's synchronizer, activating it on first use.
// Concurrent first calls for one session share a single activation, which
// is not cancelled when one of the callers gives up.
func (m *Manager) For(ctx context.Context, sessionID string) (*Synchronizer, error) {
	if syncer, ok := m.sessions.Get(sessionID); ok {
		return syncer, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(sessionID, func() (any, error) {
		if syncer, ok := m.sessions.Get(sessionID); ok {
			return syncer, nil
		}
		syncer := New(m.ops, ScopedStore(m.values, sessionID), m.locks, m.logger.With(zap.String("sessionId", sessionID)))
		if err := syncer.Activate(shared); err != nil {
			return nil, err
		}
		m.sessions.Add(sessionID, syncer)
		return syncer, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Synchronizer), nil
	}
}

// Forget drops the in-memory synchronizer; the persisted cart id is kept.
func (m *Manager) Forget(sessionID string) {
	m.sessions.Remove(sessionID)
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}
