package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionguard/pkg/session"
)

var _ session.Store = (*Store)(nil)

// Store keeps session records in Redis, one string key per session.
type Store struct {
	db            redis.UniversalClient
	prefix        string
	ttl           time.Duration
	maxRetries    int
	scanBatchSize int64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithKeyPrefix sets the prefix prepended to session ids.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL sets how long a record lives after its last write. Zero disables expiry.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithMaxRetries bounds how often Mutate retries after a concurrent write.
func WithMaxRetries(n int) StoreOption {
	return func(s *Store) {
		s.maxRetries = n
	}
}

// NewStore wraps a go-redis client.
func NewStore(client redis.UniversalClient, opts ...StoreOption) *Store {
	s := &Store{
		db:            client,
		prefix:        "session:",
		ttl:           24 * time.Hour,
		maxRetries:    10,
		scanBatchSize: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxRetries < 1 {
		s.maxRetries = 1
	}
	return s
}

// NewStoreFromConfig creates a Store using the session settings from cfg.
func NewStoreFromConfig(client redis.UniversalClient, cfg Config, ttl time.Duration) *Store {
	s := NewStore(client,
		WithKeyPrefix(cfg.KeyPrefix),
		WithTTL(ttl),
		WithMaxRetries(cfg.MutateRetries),
	)
	if cfg.ScanBatchSize > 0 {
		s.scanBatchSize = int64(cfg.ScanBatchSize)
	}
	return s
}

// Load returns nil when the key does not exist.
func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	val, err := s.db.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *Store) Save(ctx context.Context, id string, data []byte) error {
	return s.db.Set(ctx, s.key(id), data, s.ttl).Err()
}

func (s *Store) Destroy(ctx context.Context, id string) error {
	return s.db.Del(ctx, s.key(id)).Err()
}

// AllocateID reserves a fresh id with SETNX so two callers never get the same one.
func (s *Store) AllocateID(ctx context.Context) (string, error) {
	for {
		id, err := session.GenerateID()
		if err != nil {
			return "", err
		}

		ok, err := s.db.SetNX(ctx, s.key(id), []byte{}, s.ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return id, nil
		}
	}
}

// Mutate reads, transforms and writes the record inside WATCH/MULTI/EXEC.
// When another client changes the key in between, the transaction is retried;
// after the configured number of attempts ErrConflict is returned.
func (s *Store) Mutate(ctx context.Context, id string, fn session.MutateFunc) error {
	key := s.key(id)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			current = nil
		case err != nil:
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		return err
	}

	for range s.maxRetries {
		err := s.db.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return ErrConflict
}

// Count returns the number of session keys, scanning with SCAN so Redis is
// never blocked.
func (s *Store) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		batch, next, err := s.db.Scan(ctx, cursor, s.prefix+"*", s.scanBatchSize).Result()
		if err != nil {
			return 0, err
		}
		total += len(batch)
		if cursor = next; cursor == 0 {
			return total, nil
		}
	}
}

// Conn returns the underlying client.
func (s *Store) Conn() redis.UniversalClient {
	return s.db
}

func (s *Store) key(id string) string {
	return s.prefix + id
}
