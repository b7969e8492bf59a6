package session

import "context"

// MutateFunc receives the current encoded record, or nil when none exists,
// and returns the record to write. Returning an error aborts without writing.
type MutateFunc func(current []byte) ([]byte, error)

// Store persists encoded session records keyed by id.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the record for id, or nil and no error when there is none.
	Load(ctx context.Context, id string) ([]byte, error)

	// Save writes the record for id, replacing any previous one.
	Save(ctx context.Context, id string, data []byte) error

	// Destroy removes the record for id. Removing a missing record is not an error.
	Destroy(ctx context.Context, id string) error

	// AllocateID reserves and returns an id that no other record uses.
	AllocateID(ctx context.Context) (string, error)

	// Mutate runs fn and writes its result atomically with respect to every
	// other Mutate, Save and Destroy for the same id.
	Mutate(ctx context.Context, id string, fn MutateFunc) error
}
