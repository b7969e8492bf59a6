package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm identifies the AEAD construction sealing an envelope. The value is
// written into every envelope, so existing ids must never be renumbered.
type Algorithm byte

const (
	AESGCM            Algorithm = 1
	XChaCha20Poly1305 Algorithm = 2
)

var algorithms = []Algorithm{AESGCM, XChaCha20Poly1305}

func (a Algorithm) String() string {
	switch a {
	case AESGCM:
		return "aes-gcm"
	case XChaCha20Poly1305:
		return "xchacha20-poly1305"
	default:
		return fmt.Sprintf("algorithm(%d)", byte(a))
	}
}

func (a Algorithm) valid() bool {
	return a == AESGCM || a == XChaCha20Poly1305
}

// ParseAlgorithm maps a configuration name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "aes-gcm", "aes256-gcm", "aes-256-gcm":
		return AESGCM, nil
	case "xchacha20-poly1305", "xchacha20poly1305":
		return XChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

func newAEAD(alg Algorithm, key []byte) (cipher.AEAD, error) {
	switch alg {
	case AESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case XChaCha20Poly1305:
		return chacha20poly1305.NewX(key)
	default:
		return nil, ErrUnknownAlgorithm
	}
}
