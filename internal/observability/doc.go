// Package observability provides structured logging and metrics for room-qa.
//
// This package implements:
//   - zap logger construction from configuration
//   - Request ID propagation into log lines
//   - Prometheus collectors for the question pipeline
package observability
