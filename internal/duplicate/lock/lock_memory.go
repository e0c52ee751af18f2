package lock

import (
	"context"
	"sync"
	"time"

	"certguard/pkg/platform/sentinel"
)

// MemoryLocker is the single-process Locker used when Redis is not configured.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]memoryLease
	seq    uint64
	now    func() time.Time
}

type memoryLease struct {
	id        uint64
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]memoryLease), now: time.Now}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if lease, held := l.leases[key]; held && now.Before(lease.expiresAt) {
		return nil, sentinel.ErrConflict
	}
	l.seq++
	l.leases[key] = memoryLease{id: l.seq, expiresAt: now.Add(ttl)}
	return &memoryLock{owner: l, key: key, id: l.seq}, nil
}

type memoryLock struct {
	owner *MemoryLocker
	key   string
	id    uint64
}

func (m *memoryLock) Release(context.Context) error {
	m.owner.mu.Lock()
	defer m.owner.mu.Unlock()
	if lease, ok := m.owner.leases[m.key]; ok && lease.id == m.id {
		delete(m.owner.leases, m.key)
	}
	return nil
}
