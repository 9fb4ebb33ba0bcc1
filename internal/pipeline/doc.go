// Package pipeline runs the two-tier assessment of one audio submission.
//
// A submission moves Submitted → TierOneComplete → TierTwoComplete, or to
// Failed from any earlier state. Tier one produces a preliminary alert that is
// inserted into the store immediately under a temporary identity. Tier two
// replaces it in a single atomic patch that assigns the final identity and
// marks it complete. When tier two fails or the context is cancelled, the
// preliminary alert is discarded as a compensating action so no orphan
// remains. Failures are never retried.
//
// Observers receive every state transition; the metrics and notification
// packages plug in here.
package pipeline
