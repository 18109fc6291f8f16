// Package observability provides structured logging and tracing for the
// RAG chat service.
//
// This package implements:
//   - zap logger construction from LOG_LEVEL and LOG_FORMAT
//   - Request-scoped loggers carrying the chi request ID
//   - OpenTelemetry tracing exported over OTLP/gRPC
//
// Retrieval, embedding and generation each open their own span.
package observability
