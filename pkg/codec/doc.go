// Package codec encrypts and decrypts the opaque session payload exchanged
// with a session store.
//
// Payloads are sealed with an authenticated cipher so that a stored session
// can be neither read nor modified without the key. The configured 32-byte
// key is never used directly: HKDF-SHA-256 derives one working key per
// algorithm, giving domain separation between AES-256-GCM (the default) and
// XChaCha20-Poly1305.
//
// # Envelope
//
//	+---------+-----------+-------+-------------------+
//	| version | algorithm | nonce | ciphertext || tag |
//	+---------+-----------+-------+-------------------+
//	  1 byte     1 byte
//
// The header is authenticated as associated data. A fresh random nonce is
// drawn for every Encode call.
//
// # Key rotation
//
// WithPreviousKeys registers retired keys. Encode always uses the primary
// key, Decode tries the primary key first and then every previous key, so
// sessions written before a rotation stay readable until they are rewritten.
//
// # Usage
//
//	key, _ := codec.GenerateKey()
//	c, err := codec.New(key)
//	if err != nil {
//	    // wrong key length: fail at startup
//	}
//
//	sealed, _ := c.Encode([]byte(`{"user":"42"}`))
//	plain, _ := c.Decode(sealed)
//
// # Error Handling
//
// New fails fast with ErrInvalidKeyLength when a key is not exactly 32
// bytes. Decode returns ErrInvalidCiphertext for malformed envelopes and
// ErrDecryptionFailed when authentication fails. Decoding empty input is not
// an error and yields an empty payload.
package codec
