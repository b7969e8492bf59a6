package fingerprint

import "net/http"

// Middleware computes the request fingerprint once and stores it in the
// request context. Requests with an unusable address pass through untouched.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fp, ok := FromRequest(r); ok {
			r = r.WithContext(SetFingerprintToContext(r.Context(), fp))
		}
		next.ServeHTTP(w, r)
	})
}
