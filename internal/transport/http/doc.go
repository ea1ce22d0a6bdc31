// Package http implements the HTTP handlers of the dashboard API. Handlers
// stay thin: they bind and validate request parameters, call the dashboard
// service and translate its sentinel errors into RFC 7807 problems.
//
// # Routes
//
//	GET  /api/dashboard                  overview, ETag = snapshot fingerprint
//	POST /api/dashboard/reload           fetch the snapshot again
//	GET  /api/dashboard/status           outcome of the latest load
//	GET  /api/items                      filtered and sorted table rows
//	GET  /api/items/export               the same rows as CSV or XLSX
//	GET  /api/items/{id}                 item detail
//	GET  /api/items/{id}/chart           resampled price chart
//	GET  /api/chains                     interdependency chains
//	GET  /api/indicators                 leading indicators
//
// Health endpoints live under /api/health and are served by HealthHandler.
//
// # Errors
//
// Unknown items and items without prices answer 404, rejected parameters 400
// and requests made before any snapshot loaded 503 with the load failure as
// the problem detail.
package http
