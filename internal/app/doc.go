// Package app wires the explorer together and manages its lifecycle.
//
// NewApplication resolves paths, initializes OpenTelemetry and builds, in
// order: the file manager, the dataset source and cache, the websocket hub,
// the explorer, health and export services, and finally the chi router.
// Dataset state changes from the cache are pushed to websocket clients, and
// every new client is greeted with a snapshot of the dataset statuses.
//
// # Middleware
//
// Every route gets RequestID and RealIP. /ws and /metrics stop there; the
// rest add tracing, request logging, panic recovery, security headers, CORS
// and per-client rate limiting. /api routes run under a request deadline,
// and POST routes are audit-logged and body-validated.
//
// # Lifecycle
//
//	app, err := app.NewApplication(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// Run returns after SIGINT, SIGTERM, cancellation of ctx or a listen
// failure, once the server has drained and telemetry has been flushed.
package app
