// Package services implements the business logic layer between the HTTP and
// websocket transports and the dashboard data.
//
// DashboardService owns the current snapshot and turns store queries into
// view models: table rows with formatted, colour-coded cells, item details,
// resampled price charts and exports. HealthService reports liveness and
// readiness, where readiness means a snapshot has been loaded.
//
// Errors are the sentinels in errors.go, wrapped with context. Before the
// first successful load every query fails with ErrDatasetNotLoaded wrapping
// the load failure, so callers can show the cause and offer a retry.
package services
