// Package pg connects to PostgreSQL with pgx/v5 and provides a session.Store
// backed by a single sessions table.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
//	store := pg.NewStore(pool, 24*time.Hour)
//	go store.RunCleanup(ctx, cfg.CleanupInterval, log)
//
// # Schema
//
// Migrate applies goose migrations embedded in the binary, so no migration
// files need to ship with the service. The table holds the sealed record
// (bytea), its last update time and an optional expiry.
//
// # Concurrency
//
// Mutate runs in a transaction and locks the row with SELECT ... FOR UPDATE,
// so concurrent guards on the same session are serialized by PostgreSQL.
// When the row does not exist yet, the insert uses ON CONFLICT DO NOTHING and
// the transaction is retried if another writer got there first.
//
// # Error Handling
//
// Connection and migration failures are joined with ErrFailedToOpenDBConnection,
// ErrFailedToParseDBConfig or ErrFailedToApplyMigrations. IsNotFoundError and
// IsDuplicateKeyError classify driver errors.
package pg
