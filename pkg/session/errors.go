package session

import "errors"

var (
	// ErrInvalidState indicates an operation was called in a state that does not allow it
	ErrInvalidState = errors.New("session.invalid_state")

	// ErrSessionNotFound indicates no record exists for the session id
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrCorruptSession indicates a stored record could not be decrypted or decoded
	ErrCorruptSession = errors.New("session.corrupt")

	// ErrIDGeneration indicates session id generation failed
	ErrIDGeneration = errors.New("session.id_generation_failed")

	// ErrReservedKey indicates an attempt to write a key the guard manages itself
	ErrReservedKey = errors.New("session.reserved_key")

	// ErrNoTransport indicates no transport is configured
	ErrNoTransport = errors.New("session.no_transport")

	// ErrNoStore indicates no store is configured
	ErrNoStore = errors.New("session.no_store")

	// ErrNoCodec indicates no codec is configured
	ErrNoCodec = errors.New("session.no_codec")
)
