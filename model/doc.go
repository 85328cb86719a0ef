// Package model defines the generation engine abstraction and provider
// adapters. An Engine takes a normalized request (system prompt, query,
// history, tools) and returns a final text response; provider adapters run
// the model's tool-calling loop internally, executing requested tools and
// feeding results back until the model settles on an answer.
//
// Subpackages provide concrete engines:
//   - anthropic: Anthropic Messages API
//   - openai: OpenAI Chat Completions API
//
// MockEngine backs tests and examples without network access.
package model
