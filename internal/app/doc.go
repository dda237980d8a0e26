// Package app wires the dashboard query server: configuration, paths,
// OpenTelemetry, the dataset cache, the data and health services, and the
// chi router with its middleware chain.
//
// # Initialization Flow
//
//	1. Resolve and create the directory layout from config.Paths
//	2. Initialize OpenTelemetry providers and business metrics
//	3. Build the dataset cache over the canonical CSV reader
//	4. Create the data and health services
//	5. Mount /api/health, /api/version, /api/data and /metrics
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down, purges
// the dataset cache and flushes telemetry. Initialization errors are
// returned to the caller; the package never calls os.Exit.
package app
