package codec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the required length of every cipher key.
const KeySize = 32

// keyInfo separates the derived working keys of the supported algorithms.
const keyInfo = "sessionguard-codec-v1/"

// GenerateKey returns a new random key suitable for New.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// ParseKey decodes a key supplied through configuration. Hex (64 digits) and
// standard or URL-safe base64 are accepted; the decoded key must be exactly
// KeySize bytes.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKeyLength
	}

	if len(s) == hex.EncodedLen(KeySize) {
		if key, err := hex.DecodeString(s); err == nil {
			return key, nil
		}
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		key, err := enc.DecodeString(s)
		if err != nil {
			continue
		}
		if len(key) != KeySize {
			return nil, ErrInvalidKeyLength
		}
		return key, nil
	}

	return nil, ErrInvalidKeyEncoding
}

func validateKey(key []byte) error {
	if len(key) != KeySize {
		return ErrInvalidKeyLength
	}
	return nil
}

// deriveKey expands the configured key into the working key of one
// algorithm. The caller clears the result once the AEAD is built.
func deriveKey(key []byte, alg Algorithm) ([]byte, error) {
	r := hkdf.New(sha256.New, key, nil, []byte(keyInfo+alg.String()))

	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return derived, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
