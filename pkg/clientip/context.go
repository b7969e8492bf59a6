package clientip

import "context"

type clientIPContextKey struct{}

// SetIPToContext stores the client IP in the context.
func SetIPToContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// GetIPFromContext returns the client IP stored by Middleware, if any.
func GetIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
