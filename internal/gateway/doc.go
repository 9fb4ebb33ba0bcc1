// Package gateway defines the two-tier analysis contract and its backends.
//
// InitialScan turns raw audio into a keyword, preliminary rating and
// transcript using a fast model. DeepAnalysis reads a transcript with a
// slower, more capable model and produces the final rating, explanation,
// translation and slang annotations. Every backend failure surfaces as a
// *GatewayError that matches alerts.ErrGateway and carries a display message
// suitable for the operator.
//
// GeminiGateway serves both tiers through Gemini. OpenRouterDeep serves the
// deep tier through an OpenRouter-compatible chat API, and Composite pairs
// any tier-one scanner with any deep analyzer. Open assembles the backend
// selected by configuration.
package gateway
