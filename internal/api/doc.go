// Package api defines wire-format types and converters for the HTTP API and
// the CLI --json output. It translates internal alert, keyword and pipeline
// models into transport-friendly DTOs so clients render them without coupling
// to internal types.
//
// # Key Types
//
// Alert: transport representation of an alert, with optional audio payload.
//
// AlertList: a derived view plus the sort order and filter that produced it.
//
// Summary: threat counts and the most recent alert.
//
// ScanAccepted/ScanResult: the immediate and terminal answers to a scan.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers.
// Timestamps use RFC3339 with milliseconds. Errors travel as
// {"error": "<message>"} using the operator-facing message.
package api
