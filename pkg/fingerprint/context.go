package fingerprint

import "context"

type fingerprintContextKey struct{}

// SetFingerprintToContext stores a computed fingerprint in the context.
func SetFingerprintToContext(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, fingerprintContextKey{}, fingerprint)
}

// GetFingerprintFromContext returns the fingerprint stored by Middleware and
// whether one was computable for the request.
func GetFingerprintFromContext(ctx context.Context) (string, bool) {
	fingerprint, ok := ctx.Value(fingerprintContextKey{}).(string)
	return fingerprint, ok && fingerprint != ""
}
