// Package requestid tags every HTTP request with a correlation id.
//
// Middleware reuses a client supplied X-Request-ID when it is at most 128
// characters of letters, digits, dashes and underscores. Otherwise it
// generates a UUIDv4. The id is stored in the request context and echoed in
// the response header.
//
// # Usage
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
//		log.InfoContext(r.Context(), "handled") // carries request_id
//	})
//
// # Error Handling
//
// The package does not return errors. Invalid ids are replaced silently.
package requestid
