package domain

// goldCases is the built-in evaluation battery. It is never mutated;
// GoldCases hands out copies.
var goldCases = []GoldCase{
	{
		ID:                   "ai-benefits",
		Question:             "What are the main benefits of artificial intelligence in business?",
		ExpectedKeywords:     []string{"efficiency", "automation", "decision", "cost"},
		ExpectedMinCitations: 1,
		Category:             "factual",
	},
	{
		ID:                   "ml-definition",
		Question:             "How does machine learning differ from traditional programming?",
		ExpectedKeywords:     []string{"data", "patterns", "rules", "learn"},
		ExpectedMinCitations: 1,
		Category:             "conceptual",
	},
	{
		ID:                   "rag-overview",
		Question:             "What is retrieval-augmented generation and why is it useful?",
		ExpectedKeywords:     []string{"retrieval", "generation", "context", "accuracy"},
		ExpectedMinCitations: 1,
		Category:             "conceptual",
	},
	{
		ID:                   "ai-risks",
		Question:             "What risks and challenges come with deploying AI systems?",
		ExpectedKeywords:     []string{"bias", "privacy", "security", "transparency"},
		ExpectedMinCitations: 1,
		Category:             "analytical",
	},
	{
		ID:                   "data-quality",
		Question:             "Why is data quality important for AI models?",
		ExpectedKeywords:     []string{"quality", "accuracy", "training", "bias"},
		ExpectedMinCitations: 1,
		Category:             "analytical",
	},
	{
		ID:                   "nlp-applications",
		Question:             "What are common applications of natural language processing?",
		ExpectedKeywords:     []string{"translation", "sentiment", "chatbot", "summarization"},
		ExpectedMinCitations: 2,
		Category:             "factual",
	},
}

// GoldCases returns a copy of the built-in evaluation cases.
func GoldCases() []GoldCase {
	out := make([]GoldCase, len(goldCases))
	for i, c := range goldCases {
		c.ExpectedKeywords = append([]string(nil), c.ExpectedKeywords...)
		out[i] = c
	}
	return out
}
