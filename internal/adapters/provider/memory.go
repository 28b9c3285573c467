// Package provider holds session-provider adapters. Memory is the
// in-process backend used for development and tests; a vendor SDK adapter
// would satisfy the same core.SessionProvider contract.
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Memory is a threadsafe in-memory SessionProvider.
type Memory struct {
	mu       sync.RWMutex
	meetings map[domain.MeetingID]*domain.Meeting
	status   map[domain.MeetingID]core.ConnStatus
	fail     error
}

func NewMemory() *Memory {
	return &Memory{
		meetings: make(map[domain.MeetingID]*domain.Meeting),
		status:   make(map[domain.MeetingID]core.ConnStatus),
	}
}

// FailWith makes every subsequent call return err until reset with nil.
// Used by tests and fault drills.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *Memory) GetOrCreateSession(ctx context.Context, id domain.MeetingID, opts core.SessionOpts) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	if meeting, ok := m.meetings[id]; ok {
		return meeting, nil
	}
	meeting := &domain.Meeting{
		ID:          id,
		CreatedAt:   time.Now(),
		StartsAt:    opts.StartsAt,
		Description: opts.Description,
		Custom:      cloneCustom(opts.Custom),
	}
	m.meetings[id] = meeting
	m.status[id] = core.StatusIdle
	log.Info().Str("module", "provider.memory").Str("meeting", string(id)).Msg("session created")
	return meeting, nil
}

func (m *Memory) Join(ctx context.Context, id domain.MeetingID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.status[id] = core.StatusJoined
	log.Info().Str("module", "provider.memory").Str("meeting", string(id)).Msg("joined")
	return nil
}

func (m *Memory) Leave(ctx context.Context, id domain.MeetingID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.status[id] = core.StatusLeft
	log.Info().Str("module", "provider.memory").Str("meeting", string(id)).Msg("left")
	return nil
}

func (m *Memory) End(ctx context.Context, id domain.MeetingID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.status[id] = core.StatusLeft
	log.Info().Str("module", "provider.memory").Str("meeting", string(id)).Msg("ended for everyone")
	return nil
}

func (m *Memory) ConnectionStatus(id domain.MeetingID) core.ConnStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status[id]
}

// SetStatus forces a connection status. Dev/test hook for states the memory
// backend never enters on its own (connecting, reconnecting).
func (m *Memory) SetStatus(id domain.MeetingID, status core.ConnStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = status
}

func cloneCustom(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
