// Package app wires the shortage monitor together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, the YAML file and the environment
//	2. Initialize logging and OpenTelemetry
//	3. Resolve the snapshot source and build the loader
//	4. Create the websocket hub, dashboard and health services
//	5. Set up the router and middleware
//	6. Create the HTTP server
//
// New performs no I/O beyond resolving the source. Start runs the hub and
// the first snapshot load; a failed load leaves the API answering 503 until
// POST /api/dashboard/reload succeeds.
//
// # Usage
//
//	application, err := app.NewApplication(configPath)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM, cancellation of its context or a
// listener failure. Shutdown drains in-flight requests, closes websocket
// clients and flushes telemetry.
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
