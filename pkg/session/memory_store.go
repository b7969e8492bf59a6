package session

import (
	"bytes"
	"context"
	"hash/maphash"
	"sync"
	"time"
)

const memoryLockStripes = 64

type memoryRecord struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore implements Store in process memory. Records expire ttl after
// their last write; a ttl of zero keeps them until destroyed.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord

	// Writes to one id are serialized through a lock stripe chosen by hash.
	stripes [memoryLockStripes]sync.Mutex
	seed    maphash.Seed

	ttl    time.Duration
	now    func() time.Time
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock overrides the clock used for expiry.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(m *MemoryStore) {
		m.now = now
	}
}

// NewMemoryStore creates an in-memory store. A positive cleanupInterval starts
// a goroutine that evicts expired records until Close is called.
func NewMemoryStore(ttl, cleanupInterval time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	store := &MemoryStore{
		records: make(map[string]*memoryRecord),
		seed:    maphash.MakeSeed(),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(store)
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop()
	}

	return store
}

// Load returns the record for id, or nil when it is absent or expired.
func (m *MemoryStore) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookup(id), nil
}

// Save writes data under id and refreshes its expiry.
func (m *MemoryStore) Save(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m.write(id, data)
	return nil
}

// Destroy removes the record for id.
func (m *MemoryStore) Destroy(ctx context.Context, id string) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	delete(m.records, id)
	m.mu.Unlock()
	return nil
}

// AllocateID reserves a fresh id with an empty record.
func (m *MemoryStore) AllocateID(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id, err := GenerateID()
		if err != nil {
			return "", err
		}

		m.mu.Lock()
		if m.lookup(id) == nil {
			m.records[id] = &memoryRecord{data: []byte{}, expiresAt: m.expiry()}
			m.mu.Unlock()
			return id, nil
		}
		m.mu.Unlock()
	}
}

// Mutate runs fn while holding the lock for id.
func (m *MemoryStore) Mutate(ctx context.Context, id string, fn MutateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m.mu.RLock()
	current := m.lookup(id)
	m.mu.RUnlock()

	next, err := fn(current)
	if err != nil {
		return err
	}

	m.write(id, next)
	return nil
}

// DeleteExpired evicts every expired record.
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, rec := range m.records {
		if !rec.expiresAt.IsZero() && now.After(rec.expiresAt) {
			delete(m.records, id)
		}
	}
	return nil
}

// Len returns the number of records held, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close stops the cleanup goroutine.
func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
			close(m.done)
		}
	})
	return nil
}

func (m *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}

// lookup must be called with mu held.
func (m *MemoryStore) lookup(id string) []byte {
	rec, ok := m.records[id]
	if !ok {
		return nil
	}
	if !rec.expiresAt.IsZero() && m.now().After(rec.expiresAt) {
		return nil
	}
	return bytes.Clone(rec.data)
}

func (m *MemoryStore) write(id string, data []byte) {
	if data == nil {
		data = []byte{}
	}

	m.mu.Lock()
	m.records[id] = &memoryRecord{data: bytes.Clone(data), expiresAt: m.expiry()}
	m.mu.Unlock()
}

func (m *MemoryStore) expiry() time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(m.ttl)
}

func (m *MemoryStore) lockFor(id string) *sync.Mutex {
	return &m.stripes[maphash.String(m.seed, id)%memoryLockStripes]
}
