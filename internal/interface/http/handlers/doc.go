// Package handlers contains reusable HTTP building blocks.
//
// # Health Checks
//
// CompositeHealthChecker runs named checks in parallel, each with its own
// timeout:
//
//	checker := handlers.NewCompositeHealthChecker("0.1.0")
//	checker.AddCheck("database", handlers.PingCheck(db))
//	checker.AddCheck("cache", handlers.PingCheck(cache))
//
//	status := checker.Check(ctx)
//
// # Middleware
//
//	auth := handlers.NewBearerAuth(tokens, cfg.RequireAuth, writeUnauthorized)
//	h := handlers.Chain(router,
//	    handlers.RequestID,
//	    handlers.SecurityHeaders,
//	    handlers.BodyLimit(1<<20),
//	    auth.Identify,
//	)
//
// Write routes are wrapped with auth.Require; with authentication disabled
// it only rejects invalid tokens.
package handlers
