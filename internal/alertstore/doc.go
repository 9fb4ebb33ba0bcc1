// Package alertstore owns the in-memory alert and keyword collections.
//
// Store keeps alerts newest-first behind a read/write mutex, applies the
// pipeline's atomic patches, refuses to delete alerts whose deep analysis is
// still outstanding, and notifies subscribers with a monotonically increasing
// version after every mutation. Each mutation hands a snapshot to a background
// writer that coalesces pending snapshots and writes the latest one through a
// persistence.Backend with audio payloads stripped. Write failures are logged
// and reported through Options.OnPersistError; they never reach the mutator.
//
// KeywordStore applies the same persistence strategy to the keyword library.
package alertstore
