package clientip

import "net/http"

// Middleware resolves the client IP with the resolver and stores it in the
// request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := SetIPToContext(req.Context(), r.GetIP(req))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// Middleware is Resolver.Middleware for the default resolver.
func Middleware(next http.Handler) http.Handler {
	return defaultResolver.Middleware(next)
}
