// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the answer pipeline to function:
//
//   - EmbeddingService: Embeds queries and chunks
//   - VectorIndex: Stores chunk vectors and runs similarity search
//   - LLMService: Generates grounded answers
//   - DocumentStore: Document registry
//   - NormaliserRegistry: Extracts text from uploads
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Reranker: Cross-relevance scoring. Without it, similarity order is kept.
//   - EvaluationStore: Evaluation run history.
//   - MetricsRecorder: Pipeline telemetry.
//   - PromptStore: Customisable prompt templates. Defaults are compiled in.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
