// Package server exposes the alert store, keyword library and scan pipeline
// over HTTP.
//
// Routes are served by chi. Every /api route requires the configured bearer
// token; /metrics is public. Scans return 202 with the temporary alert id as
// soon as the submission is accepted; clients follow progress through
// GET /api/scans/{id} or by long-polling GET /api/alerts with since=<version>.
//
// Start takes an exclusive flock on the data directory so only one server
// owns a given store at a time.
package server
