// Package observe provides observability primitives for token resolution.
//
// It bundles an OpenTelemetry tracer and meter with a small JSON structured
// logger, and exposes the instruments the resolver and fragment cache
// record: stage executions, cache lookups, evictions and descendant scans.
// Consumers receive the pieces by injection; nothing here is global except
// what the OpenTelemetry SDK itself installs.
package observe
