package session

import (
	"bytes"
	"encoding/json"
	"maps"
	"math"
	"strconv"
)

// Reserved payload keys maintained by the guard.
const (
	KeyLastActivity = "_last_activity"
	KeyFingerprint  = "_fingerprint"
)

// Payload is the decoded content of a session record.
type Payload map[string]any

// IsReservedKey reports whether key is managed by the guard.
func IsReservedKey(key string) bool {
	return key == KeyLastActivity || key == KeyFingerprint
}

func (p Payload) Get(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

func (p Payload) Set(key string, value any) {
	p[key] = value
}

func (p Payload) Delete(key string) {
	delete(p, key)
}

func (p Payload) GetString(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

func (p Payload) GetBool(key string) (bool, bool) {
	b, ok := p[key].(bool)
	return b, ok
}

// GetInt returns an integer value. Values that went through a store come back
// as json.Number and are converted.
func (p Payload) GetInt(key string) (int64, bool) {
	return toInt64(p[key])
}

// LastActivity returns the stored activity timestamp in epoch seconds.
func (p Payload) LastActivity() (int64, bool) {
	return p.GetInt(KeyLastActivity)
}

// Fingerprint returns the bound fingerprint, if any.
func (p Payload) Fingerprint() (string, bool) {
	fp, ok := p.GetString(KeyFingerprint)
	if !ok || fp == "" {
		return "", false
	}
	return fp, true
}

// Clone returns a shallow copy.
func (p Payload) Clone() Payload {
	if p == nil {
		return Payload{}
	}
	return maps.Clone(p)
}

// touch moves the activity timestamp forward, never backward.
func (p Payload) touch(now int64) {
	if last, ok := p.LastActivity(); ok && last >= now {
		return
	}
	p[KeyLastActivity] = now
}

// bindFingerprint sets the fingerprint only when none is stored. It reports
// whether the payload changed.
func (p Payload) bindFingerprint(fp string) bool {
	if _, ok := p.Fingerprint(); ok {
		return false
	}
	p[KeyFingerprint] = fp
	return true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func marshalPayload(p Payload) ([]byte, error) {
	if p == nil {
		p = Payload{}
	}
	return json.Marshal(p)
}

func unmarshalPayload(data []byte) (Payload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Payload{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}
