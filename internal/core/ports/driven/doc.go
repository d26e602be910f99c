// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ReferenceStore: Draft reference persistence (memory, SQLite, Redis)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ChunkSearcher: Similarity search over the chunk corpus. Without it, outlines are generated without context.
//   - ChunkContentSource: Chunk content lookup. Without it, references list with placeholder content.
//   - EmbeddingService: Generates query embeddings for the corpus adapters.
//   - LLMService: Language model. Without it, outlines fall back to the default skeleton.
//   - PromptStore: User-editable prompt templates. Without it, embedded defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
