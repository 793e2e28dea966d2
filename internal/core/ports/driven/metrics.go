package driven

import "time"

// MetricsRecorder receives pipeline telemetry.
type MetricsRecorder interface {
	// ObserveStage records the duration of a pipeline stage
	// ("retrieval", "rerank", "generation", "total").
	ObserveStage(stage string, d time.Duration)

	// IncQuery counts a finished query by outcome ("ok", "no_results", "error").
	IncQuery(outcome string)

	// IncRerankDegraded counts reranks that fell back to similarity order.
	IncRerankDegraded()

	// ObserveUpload records an ingested document and its chunk count.
	ObserveUpload(chunks int)
}
