// Package preflight provides readiness checks for the filesystem paths,
// storage backend and analysis providers that audiosurv depends on.
//
// The CLI "audiosurv health" command runs RunAll and renders each Result as a
// status line. Checks never return errors; failures are reported in Detail so
// one broken dependency does not hide the state of the others.
package preflight
