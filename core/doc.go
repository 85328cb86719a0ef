// Package core provides the foundational domain types and execution contexts
// used by AgentRelay. It defines the core abstractions for:
//
//   - Events (immutable lifecycle + delegation records) and the synchronous Bus
//   - DelegationContext (per-call-chain state: chain, depth, scoped event bus)
//   - Conversations (ordered message transcripts with timestamps and metadata)
//   - TaskResult (the uniform outcome shape of a delegated execution)
//   - The ConversationStore interface for pluggable transcript persistence
//
// The package intentionally keeps implementation concerns (admission control,
// orchestration, generation engines, concrete stores) out of scope, exposing
// small types and interfaces to enable custom backends and extensions.
package core
