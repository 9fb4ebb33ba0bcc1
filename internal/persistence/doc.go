// Package persistence provides the key-value backends that hold audiosurv's
// serialized alert and keyword collections.
//
// Each backend stores opaque blobs under a small set of well-known keys. The
// SQLite backend is the default; the file, Redis and in-memory backends serve
// alternative deployments and tests. Callers treat a missing key as
// ErrNotFound and decide themselves how to seed state.
package persistence
