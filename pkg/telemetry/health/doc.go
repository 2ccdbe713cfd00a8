// Package health serves liveness, readiness and version endpoints for the
// long-running watch mode.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("last_expansion", w.LastError)
//	health.Register(mux, checker, version.Version)
//
// GET /health always answers 200 while the process runs. GET /ready runs
// every registered check and answers 503 if any fails.
package health
