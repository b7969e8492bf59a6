package codec

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// envelopeVersion is the first byte of every sealed payload.
const envelopeVersion byte = 1

const headerSize = 2

// Codec seals and opens session payloads. It is safe for concurrent use.
type Codec struct {
	alg Algorithm
	// aeads holds, per algorithm, the primary key first followed by the
	// previous keys in the order they were configured.
	aeads map[Algorithm][]cipher.AEAD
}

// Option configures a Codec.
type Option func(*options)

type options struct {
	alg      Algorithm
	previous [][]byte
}

// WithAlgorithm selects the AEAD used by Encode. Decode accepts every
// supported algorithm regardless of this setting.
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) {
		o.alg = alg
	}
}

// WithPreviousKeys registers retired keys that Decode still accepts, which
// lets a deployment rotate the key without dropping live sessions.
func WithPreviousKeys(keys ...[]byte) Option {
	return func(o *options) {
		o.previous = append(o.previous, keys...)
	}
}

// New creates a Codec for the given key. The key must be exactly KeySize
// bytes; anything else is rejected rather than truncated or padded.
func New(key []byte, opts ...Option) (*Codec, error) {
	o := options{alg: AESGCM}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.alg.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, o.alg)
	}

	keys := append([][]byte{key}, o.previous...)
	for i, k := range keys {
		if err := validateKey(k); err != nil {
			return nil, fmt.Errorf("%w: key %d has %d bytes", err, i, len(k))
		}
	}

	c := &Codec{
		alg:   o.alg,
		aeads: make(map[Algorithm][]cipher.AEAD, len(algorithms)),
	}

	for _, alg := range algorithms {
		for _, k := range keys {
			derived, err := deriveKey(k, alg)
			if err != nil {
				return nil, err
			}
			aead, err := newAEAD(alg, derived)
			clearBytes(derived)
			if err != nil {
				return nil, errors.Join(ErrEncryptionFailed, err)
			}
			c.aeads[alg] = append(c.aeads[alg], aead)
		}
	}

	return c, nil
}

// Algorithm reports the algorithm used by Encode.
func (c *Codec) Algorithm() Algorithm {
	return c.alg
}

// Encode seals payload with the primary key.
// Output format: version | algorithm | nonce | ciphertext+tag.
// The two header bytes are authenticated as associated data.
func (c *Codec) Encode(payload []byte) ([]byte, error) {
	aead := c.aeads[c.alg][0]
	header := []byte{envelopeVersion, byte(c.alg)}

	out := make([]byte, headerSize+aead.NonceSize(), headerSize+aead.NonceSize()+len(payload)+aead.Overhead())
	copy(out, header)

	nonce := out[headerSize:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return aead.Seal(out, nonce, payload, header), nil
}

// Decode opens an envelope produced by Encode. Empty input decodes to an
// empty payload, which is how a store reports a session without data.
func (c *Codec) Decode(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return []byte{}, nil
	}
	if len(raw) < headerSize || raw[0] != envelopeVersion {
		return nil, ErrInvalidCiphertext
	}

	alg := Algorithm(raw[1])
	candidates, ok := c.aeads[alg]
	if !ok {
		return nil, fmt.Errorf("%w: envelope id %d", ErrUnknownAlgorithm, raw[1])
	}

	header, body := raw[:headerSize], raw[headerSize:]
	nonceSize := candidates[0].NonceSize()
	if len(body) < nonceSize+candidates[0].Overhead() {
		return nil, ErrInvalidCiphertext
	}
	nonce, sealed := body[:nonceSize], body[nonceSize:]

	var lastErr error
	for _, aead := range candidates {
		plain, err := aead.Open(nil, nonce, sealed, header)
		if err == nil {
			if plain == nil {
				plain = []byte{}
			}
			return plain, nil
		}
		lastErr = err
	}

	return nil, errors.Join(ErrDecryptionFailed, lastErr)
}
