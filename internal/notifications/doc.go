// Package notifications pushes threat assessments to the operator via ntfy.
//
// The Service publishes to the topic configured in config.toml and degrades
// to a no-op when no topic is set. Observer attaches the service to the
// pipeline so completed alerts at or above notifications.min_rating, and
// optionally failed scans, produce a push message.
package notifications
