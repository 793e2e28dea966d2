package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer is the grounding prompt for cited answers.
	// The template expects %s placeholders for the numbered context,
	// the no-answer phrase and the question, in that order.
	PromptAnswer = "answer_with_citations"
)
