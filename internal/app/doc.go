// Package app wires configuration, logging, telemetry, the analysis run
// manager and the HTTP surface into one Application.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, .env, ENERLYTICS_* variables)
//	2. Initialize the JSON logger and OpenTelemetry providers
//	3. Build the operation tracer and the analysis run manager
//	4. Create the analysis and health services
//	5. Mount handlers and middleware on a chi router
//	6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(nil, nil)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run blocks until SIGINT, SIGTERM or ctx cancellation, then shuts the
// server down within Server.ShutdownTimeout and flushes telemetry.
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
