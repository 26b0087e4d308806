// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Fetcher: retrieves a web page as plain text
//   - Chunker: splits a document into overlapping chunks
//   - EmbeddingService: generates vector embeddings
//   - IndexService: provisions, writes to, and queries a vector index
//   - LLMService: produces the grounded answer
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil; the application degrades gracefully:
//
//   - TokenCounter: enforces a context token budget. Without it, context is sent whole.
//   - PromptStore: user-editable prompts. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
