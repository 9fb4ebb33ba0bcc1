// Package alerts defines the threat-assessment domain model shared by the
// store, the analysis pipeline, and the read views.
//
// An Alert is created by the pipeline in the preliminary state once the fast
// scan finishes and is patched to complete when deep analysis lands. Keywords
// are operator-managed configuration for the keyword analysis path; they are
// not consulted by the audio scan pipeline.
//
// The package also owns the sentinel error markers used across the module so
// callers can classify failures with errors.Is regardless of which layer
// produced them.
package alerts
