// Package middleware provides net/http middleware used by the document
// server.
//
// Middleware is applied with Chain; the first middleware is the
// outermost:
//
//	h := middleware.Chain(handler,
//	    middleware.RecoveryMiddleware(middleware.RecoveryConfig{Logger: logger}),
//	    middleware.RequestIDMiddleware(middleware.RequestIDConfig{}),
//	    middleware.AccessLogMiddleware(middleware.AccessLogConfig{Logger: logger}),
//	)
package middleware
