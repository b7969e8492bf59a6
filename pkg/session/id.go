package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	idBytes = 32

	// maxInboundIDLength bounds what is accepted from a client before lookup.
	maxInboundIDLength = 128
)

// GenerateID returns a new random session id: 64 lowercase hex characters.
// Hex ids only contain word characters, so they pass SanitizeID untouched.
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrIDGeneration, err)
	}
	return hex.EncodeToString(b), nil
}

// SanitizeID strips every character outside [A-Za-z0-9_] from an inbound id.
// Ids longer than any id this package generates are rejected as empty.
func SanitizeID(id string) string {
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, id)
	if len(id) > maxInboundIDLength {
		return ""
	}
	return id
}
