package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionguard/pkg/session"
)

var _ session.Store = (*Store)(nil)

type sessionDocument struct {
	ID        string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	Version   int64      `bson:"version"`
	UpdatedAt time.Time  `bson:"updated_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

func (d sessionDocument) expired(now time.Time) bool {
	return d.ExpiresAt != nil && !now.Before(*d.ExpiresAt)
}

// Store keeps one document per session. Concurrent updates are resolved with
// a compare-and-swap on the version field.
type Store struct {
	coll       *mongo.Collection
	ttl        time.Duration
	maxRetries int
	now        func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL sets how long a record lives after its last write. Zero disables expiry.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithMaxRetries bounds compare-and-swap attempts in Mutate.
func WithMaxRetries(n int) StoreOption {
	return func(s *Store) {
		s.maxRetries = n
	}
}

// NewStore creates a Store on coll.
func NewStore(coll *mongo.Collection, opts ...StoreOption) *Store {
	s := &Store{
		coll:       coll,
		ttl:        24 * time.Hour,
		maxRetries: 10,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxRetries < 1 {
		s.maxRetries = 1
	}
	return s
}

// NewStoreFromConfig creates a Store on cfg.Database / cfg.Collection.
func NewStoreFromConfig(client *mongo.Client, cfg Config, ttl time.Duration) *Store {
	return NewStore(
		client.Database(cfg.Database).Collection(cfg.Collection),
		WithTTL(ttl),
		WithMaxRetries(cfg.MutateRetries),
	)
}

// EnsureIndexes creates the TTL index that lets MongoDB evict expired
// sessions in the background.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	})
	return err
}

func (s *Store) Load(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.find(ctx, id)
	if err != nil || doc == nil || doc.expired(s.now()) {
		return nil, err
	}
	return nonNil(doc.Data), nil
}

func (s *Store) Save(ctx context.Context, id string, data []byte) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		s.update(data),
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

func (s *Store) Destroy(ctx context.Context, id string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// AllocateID inserts an empty document under a fresh id.
func (s *Store) AllocateID(ctx context.Context) (string, error) {
	for {
		id, err := session.GenerateID()
		if err != nil {
			return "", err
		}

		err = s.insert(ctx, id, []byte{})
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		return id, nil
	}
}

// Mutate reads the document, applies fn and writes back only if the version
// is unchanged. A lost race reruns fn against the newer document.
func (s *Store) Mutate(ctx context.Context, id string, fn session.MutateFunc) error {
	for range s.maxRetries {
		doc, err := s.find(ctx, id)
		if err != nil {
			return err
		}

		var current []byte
		if doc != nil && !doc.expired(s.now()) {
			current = nonNil(doc.Data)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if doc == nil {
			err := s.insert(ctx, id, next)
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return err
		}

		res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id, "version": doc.Version}, s.update(next))
		if err != nil {
			return err
		}
		if res.MatchedCount == 1 {
			return nil
		}
	}

	return ErrConflict
}

func (s *Store) find(ctx context.Context, id string) (*sessionDocument, error) {
	var doc sessionDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) insert(ctx context.Context, id string, data []byte) error {
	now := s.now()
	_, err := s.coll.InsertOne(ctx, sessionDocument{
		ID:        id,
		Data:      nonNil(data),
		Version:   1,
		UpdatedAt: now,
		ExpiresAt: s.expiresAt(now),
	})
	return err
}

func (s *Store) update(data []byte) bson.M {
	now := s.now()
	set := bson.M{
		"data":       nonNil(data),
		"updated_at": now,
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": int64(1)},
	}

	if exp := s.expiresAt(now); exp != nil {
		set["expires_at"] = *exp
	} else {
		update["$unset"] = bson.M{"expires_at": ""}
	}
	return update
}

func (s *Store) expiresAt(now time.Time) *time.Time {
	if s.ttl <= 0 {
		return nil
	}
	t := now.Add(s.ttl)
	return &t
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
