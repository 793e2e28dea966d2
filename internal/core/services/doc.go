// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The answer pipeline is assembled from three stages that run strictly
// in order for each query: Retriever, Reranker and Composer. None of
// them holds per-request state, so a single QueryService is safe for
// concurrent use.
package services
