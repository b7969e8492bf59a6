// Package logger builds the structured slog.Logger used across the module
// and provides attribute helpers that keep key names consistent.
//
// New applies functional options (format, level, output, static attributes,
// context extractors) and wraps the handler in LogHandlerDecorator, which
// injects request-scoped values such as the request id on every record.
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "sessiond"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "session regenerated", logger.SessionID(id))
//
// SessionID never logs the raw id: it emits a short SHA-256 prefix that is
// enough to correlate records but useless as a credential.
package logger
