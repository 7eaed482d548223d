// Package health reports the health of the token resolution service.
//
// A Checker reports a Result with a Status: Healthy, Degraded or Unhealthy.
// CacheChecker inspects fragment cache statistics and StoreChecker probes
// the content store. An Aggregator runs registered checkers concurrently
// under a timeout and folds their results into an overall status.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (liveness), /readyz (overall status as text) and
// /health (per-check JSON).
package health
