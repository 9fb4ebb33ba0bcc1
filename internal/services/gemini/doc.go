// Package gemini wraps the Gemini generateContent API for JSON-only replies.
//
// Client.GenerateJSON sends a prompt, optional inline audio and a response
// schema to a named model and returns the concatenated text of the first
// candidate. Callers own prompt wording and schema design; this package only
// handles transport, timeouts and response extraction.
package gemini
