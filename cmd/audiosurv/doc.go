// Package main hosts the audiosurv CLI entrypoint and command graph.
//
// The Cobra-based command tree runs scans in-process, inspects and prunes the
// alert collection, manages the keyword library, scaffolds configuration and
// starts the HTTP API server. It centralizes configuration resolution, store
// and gateway construction, and logging setup so subcommands can focus on
// presentation.
package main
