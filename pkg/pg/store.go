package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionguard/pkg/session"
)

var _ session.Store = (*Store)(nil)

const (
	loadQuery = `SELECT data FROM sessions
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`

	lockQuery = `SELECT data, (expires_at IS NOT NULL AND expires_at <= now()) AS expired
		FROM sessions WHERE id = $1 FOR UPDATE`

	upsertQuery = `INSERT INTO sessions (id, data, updated_at, expires_at)
		VALUES ($1, $2, now(), $3)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at`

	insertQuery = `INSERT INTO sessions (id, data, updated_at, expires_at) VALUES ($1, $2, now(), $3)`

	insertIfAbsentQuery = insertQuery + ` ON CONFLICT (id) DO NOTHING`

	deleteQuery        = `DELETE FROM sessions WHERE id = $1`
	deleteExpiredQuery = `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`

	// a missing row offers nothing to lock, so a concurrent insert can win
	maxInsertRaces = 3
)

// Store keeps session records in the sessions table created by Migrate.
type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewStore creates a Store. Records expire ttl after their last write; zero
// keeps them until destroyed.
func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, loadQuery, id).Scan(&data)
	if IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, id string, data []byte) error {
	_, err := s.pool.Exec(ctx, upsertQuery, id, nonNil(data), s.expiresAt())
	return err
}

func (s *Store) Destroy(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, deleteQuery, id)
	return err
}

// AllocateID inserts an empty record under a fresh id, retrying on the
// unlikely primary key collision.
func (s *Store) AllocateID(ctx context.Context) (string, error) {
	for {
		id, err := session.GenerateID()
		if err != nil {
			return "", err
		}

		_, err = s.pool.Exec(ctx, insertQuery, id, []byte{}, s.expiresAt())
		if IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		return id, nil
	}
}

// Mutate locks the row with SELECT ... FOR UPDATE, applies fn and writes the
// result in the same transaction.
func (s *Store) Mutate(ctx context.Context, id string, fn session.MutateFunc) error {
	for range maxInsertRaces {
		err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			return s.mutateTx(ctx, tx, id, fn)
		})
		if errors.Is(err, errInsertRace) {
			continue
		}
		return err
	}
	return ErrConflict
}

var errInsertRace = errors.New("pg: concurrent insert")

func (s *Store) mutateTx(ctx context.Context, tx pgx.Tx, id string, fn session.MutateFunc) error {
	var (
		current []byte
		expired bool
	)
	err := tx.QueryRow(ctx, lockQuery, id).Scan(&current, &expired)
	exists := err == nil
	switch {
	case IsNotFoundError(err):
		current = nil
	case err != nil:
		return err
	case expired:
		current = nil
	case current == nil:
		current = []byte{}
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if exists {
		_, err = tx.Exec(ctx, upsertQuery, id, nonNil(next), s.expiresAt())
		return err
	}

	tag, err := tx.Exec(ctx, insertIfAbsentQuery, id, nonNil(next), s.expiresAt())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errInsertRace
	}
	return nil
}

// DeleteExpired removes expired records and returns how many were deleted.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, deleteExpiredQuery)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RunCleanup calls DeleteExpired every interval until ctx is canceled.
func (s *Store) RunCleanup(ctx context.Context, interval time.Duration, log logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx)
			if err != nil {
				log.ErrorContext(ctx, "failed to delete expired sessions", "error", err)
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "expired sessions deleted", "count", n)
			}
		}
	}
}

func (s *Store) expiresAt() *time.Time {
	if s.ttl <= 0 {
		return nil
	}
	t := time.Now().Add(s.ttl)
	return &t
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
