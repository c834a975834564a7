// Package server provides the HTTP server of the web utility.
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                    HTTP Server (web.host:web.port)            │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Middleware Stack                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  Logger (request/response logging)                      │  │
//	│  │  Recovery (panic recovery with zap logging)             │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	├───────────────────────────────────────────────────────────────┤
//	│  /healthz   liveness                                          │
//	│  /metrics   Prometheus (harness_http_* and Go runtime)        │
//	│  /api/*     Handlers (registered via callback)                │
//	│  anything else → 404 envelope                                 │
//	└───────────────────────────────────────────────────────────────┘
//
// web.debug switches gin to debug mode; otherwise it runs in release mode.
//
// # Server Lifecycle
//
//	srv, err := server.NewServer(cfg.Web, func(router *gin.RouterGroup) {
//	    v1.RegisterHandlers(router, handler)
//	})
//	if err != nil { ... }
//
//	// Blocks until ctx is cancelled, then shuts down gracefully
//	err = srv.Start(ctx)
//
// # Middleware
//
// Logger Middleware (middlewares.Logger):
//   - Logs request start at debug level: method, path, query, IP, user-agent
//   - Logs request end: all above + status code, latency
//   - Requests that recorded errors are logged at warn level
//   - Uses zap structured logging with "http" logger name
//
// Recovery Middleware (ginzap.RecoveryWithZap):
//   - Recovers from panics in handlers
//   - Logs panic details with stack trace
//   - Returns 500 Internal Server Error
package server
