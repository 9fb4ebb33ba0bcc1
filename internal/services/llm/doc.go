// Package llm provides an OpenRouter-compatible chat client that returns
// JSON-only completions.
//
// audiosurv uses it as an alternative deep-analysis backend: the gateway
// sends the tier-one transcript with a structured system prompt and decodes
// the JSON reply with DecodeJSON, which tolerates code fences and leading
// prose.
//
// # Retry Behaviour
//
// MaxAttempts defaults to 1, so a failed request surfaces immediately. When
// raised, the client retries HTTP 408/429/5xx responses and network timeouts
// with exponential backoff (base 1s, max 10s). Context cancellation aborts
// retries immediately.
//
// # Timeouts
//
// TimeoutSeconds bounds each HTTP attempt. Zero leaves requests unbounded;
// callers that want a deadline pass one on the context.
package llm
