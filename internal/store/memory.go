package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/cardroom/cardroom/internal/game"
)

// Memory is an in-process Store used by tests and local simulation. It
// honors the same conditional-write contract as the Redis store, so race
// behavior can be tested without a network.
type Memory struct {
	mu       sync.Mutex
	clock    quartz.Clock
	sessions map[string]*memoryRecord
	actions  map[string][]game.ActionRecord
	watchers map[string][]chan struct{}
	leases   map[string]memoryLease
}

type memoryRecord struct {
	version int64
	data    []byte
}

type memoryLease struct {
	owner  string
	expiry time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory(clock quartz.Clock) *Memory {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Memory{
		clock:    clock,
		sessions: make(map[string]*memoryRecord),
		actions:  make(map[string][]game.ActionRecord),
		watchers: make(map[string][]chan struct{}),
		leases:   make(map[string]memoryLease),
	}
}

func (m *Memory) Create(ctx context.Context, sess *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sess.Room]; ok {
		return fmt.Errorf("room %s already exists", sess.Room)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	m.sessions[sess.Room] = &memoryRecord{version: 1, data: data}
	return nil
}

func (m *Memory) Load(ctx context.Context, room string) (*game.Session, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[room]
	if !ok {
		return nil, 0, ErrNotFound
	}
	var sess game.Session
	if err := json.Unmarshal(rec.data, &sess); err != nil {
		return nil, 0, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, rec.version, nil
}

func (m *Memory) Update(ctx context.Context, room string, expect int64, sess *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[room]
	if !ok {
		return ErrNotFound
	}
	if rec.version != expect {
		return ErrConflict
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	rec.version++
	rec.data = data
	m.notify(room)
	return nil
}

func (m *Memory) AppendAction(ctx context.Context, record game.ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.actions[record.Room] = append(m.actions[record.Room], record)
	return nil
}

func (m *Memory) Actions(ctx context.Context, room string) ([]game.ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]game.ActionRecord(nil), m.actions[room]...), nil
}

func (m *Memory) Watch(ctx context.Context, room string) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan struct{}, 1)
	m.watchers[room] = append(m.watchers[room], ch)

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		chans := m.watchers[room]
		for i, c := range chans {
			if c == ch {
				m.watchers[room] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
	}()
	return ch, nil
}

// notify wakes watchers without blocking; a watcher that has not drained
// its previous notification simply collapses the two.
func (m *Memory) notify(room string) {
	for _, ch := range m.watchers[room] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (m *Memory) AcquireLease(ctx context.Context, room, clientID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	lease, ok := m.leases[room]
	if ok && lease.owner != clientID && now.Before(lease.expiry) {
		return false, nil
	}
	m.leases[room] = memoryLease{owner: clientID, expiry: now.Add(ttl)}
	return true, nil
}

func (m *Memory) RenewLease(ctx context.Context, room, clientID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.leases[room]
	if !ok || lease.owner != clientID || m.clock.Now().After(lease.expiry) {
		return false, nil
	}
	m.leases[room] = memoryLease{owner: clientID, expiry: m.clock.Now().Add(ttl)}
	return true, nil
}

func (m *Memory) ReleaseLease(ctx context.Context, room, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lease, ok := m.leases[room]; ok && lease.owner == clientID {
		delete(m.leases, room)
	}
	return nil
}
