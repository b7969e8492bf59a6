package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
)

// Error records err under the key "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under the key "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// SessionID records a short, non-reversible reference to a session id under
// the key "session". Raw ids are bearer credentials and never reach the log.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	sum := sha256.Sum256([]byte(id))
	return slog.String("session", hex.EncodeToString(sum[:6]))
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Store records the storage backend under the key "store".
func Store(name string) slog.Attr {
	return slog.String("store", name)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
