// Package mongo connects to MongoDB and provides a session.Store backed by a
// collection.
//
// # Usage
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Disconnect(ctx)
//
//	store := mongo.NewStoreFromConfig(client, cfg, 24*time.Hour)
//	if err := store.EnsureIndexes(ctx); err != nil {
//		return err
//	}
//
// # Session store
//
// Each session is one document holding the sealed record, a version counter
// and an optional expires_at. EnsureIndexes creates a TTL index on expires_at;
// because MongoDB evicts lazily, expired documents are also ignored on read.
//
// Mutate is optimistic: the update is filtered on the version that was read,
// and fn is rerun against the fresh document when another writer won. After
// the configured attempts ErrConflict is returned.
//
// # Error Handling
//
// Connection failures are joined with ErrFailedToConnectToMongo, probe
// failures with ErrHealthcheckFailed. Use errors.Is to match them.
package mongo
