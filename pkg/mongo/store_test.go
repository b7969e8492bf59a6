package mongo_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	gomongo "go.mongodb.org/mongo-driver/v2/mongo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/codec"
	"github.com/dmitrymomot/sessionguard/pkg/mongo"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

// newTestCollection connects to MONGODB_URL and returns a collection unique to
// the test. Tests are skipped when the variable is not set.
func newTestCollection(t *testing.T) *gomongo.Collection {
	t.Helper()

	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL is not set")
	}

	ctx := context.Background()
	client, err := mongo.New(ctx, mongo.Config{
		ConnectionURL:  url,
		ConnectTimeout: 5 * time.Second,
		MaxPoolSize:    10,
		RetryAttempts:  1,
	})
	require.NoError(t, err)
	require.NoError(t, mongo.Healthcheck(client)(ctx))

	coll := client.Database("sessionguard_test").Collection("sessions_" + strconv.FormatInt(time.Now().UnixNano(), 36))
	t.Cleanup(func() {
		_ = coll.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return coll
}

func TestStore(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()
	store := mongo.NewStore(coll, mongo.WithTTL(time.Hour))
	require.NoError(t, store.EnsureIndexes(ctx))

	t.Run("load missing", func(t *testing.T) {
		data, err := store.Load(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("allocate save load destroy", func(t *testing.T) {
		id, err := store.AllocateID(ctx)
		require.NoError(t, err)

		data, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, data)
		assert.Empty(t, data)

		require.NoError(t, store.Save(ctx, id, []byte("one")))
		data, err = store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []byte("one"), data)

		require.NoError(t, store.Destroy(ctx, id))
		data, err = store.Load(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("mutate missing record", func(t *testing.T) {
		require.NoError(t, store.Mutate(ctx, "fresh", func(current []byte) ([]byte, error) {
			assert.Nil(t, current)
			return []byte("created"), nil
		}))
		data, _ := store.Load(ctx, "fresh")
		assert.Equal(t, []byte("created"), data)
	})

	t.Run("mutate abort", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "a", []byte("one")))
		abort := errors.New("abort")
		assert.ErrorIs(t, store.Mutate(ctx, "a", func([]byte) ([]byte, error) { return nil, abort }), abort)
		data, _ := store.Load(ctx, "a")
		assert.Equal(t, []byte("one"), data)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		casStore := mongo.NewStore(coll, mongo.WithMaxRetries(1000))
		require.NoError(t, casStore.Save(ctx, "counter", []byte("0")))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, casStore.Mutate(ctx, "counter", func(current []byte) ([]byte, error) {
					n, err := strconv.Atoi(string(current))
					if err != nil {
						return nil, err
					}
					return []byte(strconv.Itoa(n + 1)), nil
				}))
			}()
		}
		wg.Wait()

		data, _ := casStore.Load(ctx, "counter")
		assert.Equal(t, "8", string(data))
	})
}

func TestStore_WithSessionManager(t *testing.T) {
	coll := newTestCollection(t)
	ctx := context.Background()

	key, err := codec.GenerateKey()
	require.NoError(t, err)
	c, err := codec.New(key, codec.WithAlgorithm(codec.XChaCha20Poly1305))
	require.NoError(t, err)

	m, err := session.New(mongo.NewStore(coll), c)
	require.NoError(t, err)

	owner := m.Guard(session.Client{RemoteAddr: "2001:db8::1", UserAgent: "Mozilla/5.0"})
	require.NoError(t, owner.Start(ctx, ""))

	thief := m.Guard(session.Client{RemoteAddr: "2001:db8::2", UserAgent: "Mozilla/5.0"})
	require.NoError(t, thief.Start(ctx, owner.ID()))
	assert.False(t, thief.IsFingerprinted())

	require.NoError(t, owner.Forget(ctx))
	data, err := mongo.NewStore(coll).Load(ctx, owner.ID())
	require.NoError(t, err)
	assert.Nil(t, data)
}
