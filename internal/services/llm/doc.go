// Package llm is a small client for OpenRouter-compatible chat completion
// endpoints that answer in JSON.
//
// The event classifier uses it to place listings the keyword rules cannot
// decide into a category. Requests are retried on 408, 429, 5xx, and network
// timeouts with capped exponential backoff; a Retry-After header overrides
// the computed delay. Context cancellation stops retries at once.
//
// Entry points:
//   - NewClient builds a client from Config.
//   - Client.CompleteJSON sends a system and user prompt and returns the JSON text.
//   - Client.ClassifyEvent asks for a category and sub-category for one event.
//   - Client.HealthCheck verifies the key and model respond.
//
// Callers treat every error as "no answer" and fall back to rules.
package llm
