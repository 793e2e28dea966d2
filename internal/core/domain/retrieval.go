package domain

// ScoredCandidate is a chunk returned by similarity search.
// Similarity is provider-defined; higher is more relevant.
type ScoredCandidate struct {
	Chunk      Chunk
	Similarity float64
}

// RerankedCandidate is a candidate after the rerank stage.
// A nil RerankScore means reranking was skipped or failed for the set.
type RerankedCandidate struct {
	Chunk       Chunk
	Similarity  float64
	RerankScore *float64
}

// RerankOutcome is the tagged result of a rerank call.
// Degraded reports that the provider failed and Candidates are in
// similarity order with no rerank scores.
type RerankOutcome struct {
	Candidates []RerankedCandidate

	// Degraded is true when the rerank provider failed.
	Degraded bool

	// Reason carries the provider failure when Degraded is set.
	Reason string
}

// Unranked converts scored candidates to reranked ones without scores,
// preserving order. At most limit candidates are kept.
func Unranked(candidates []ScoredCandidate, limit int) []RerankedCandidate {
	if limit > len(candidates) {
		limit = len(candidates)
	}
	if limit < 0 {
		limit = 0
	}
	out := make([]RerankedCandidate, 0, limit)
	for _, c := range candidates[:limit] {
		out = append(out, RerankedCandidate{Chunk: c.Chunk, Similarity: c.Similarity})
	}
	return out
}

// ToSource flattens a reranked candidate into its response shape.
func (c RerankedCandidate) ToSource() Source {
	return Source{
		ID:          c.Chunk.ID,
		Content:     c.Chunk.Content,
		Source:      c.Chunk.Source,
		Title:       c.Chunk.Title,
		Score:       c.Similarity,
		RerankScore: c.RerankScore,
	}
}
