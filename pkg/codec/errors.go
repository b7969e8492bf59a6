package codec

import "errors"

var (
	// ErrInvalidKeyLength is returned at construction when a key is not KeySize bytes.
	ErrInvalidKeyLength = errors.New("invalid cipher key: must be 32 bytes")

	// ErrInvalidKeyEncoding is returned by ParseKey for values that are neither hex nor base64.
	ErrInvalidKeyEncoding = errors.New("invalid cipher key encoding: expected hex or base64")

	// ErrUnknownAlgorithm is returned for unsupported algorithm names or envelope ids.
	ErrUnknownAlgorithm = errors.New("unknown cipher algorithm")

	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	ErrKeyDerivationFailed = errors.New("key derivation failed")
)
