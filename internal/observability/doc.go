// Package observability centralizes logging for the service.
//
// Subpackages:
//   - logging: structured JSON logging built on slog, with request-scoped
//     loggers carried through context
//
// Prometheus metrics are defined next to the code that records them (the
// HTTP handlers and the notification dispatcher) rather than in a central
// registry, so each package owns its own instrument names.
package observability
