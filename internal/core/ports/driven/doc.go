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
//   - IndexStore: Persists index records and answers candidate queries (SQLite)
//   - ConfigStore: Application configuration (TOML)
//   - PostProcessor: Turns documents into chunks (chunker, lexical tokens)
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, search is lexical-only.
//   - LexicalRanker: Term-frequency re-ranking of candidates. Without it, the
//     store's containment score is used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or postprocessor package
package driven
