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
	// PromptAnswerSystem is the system prompt for answering a judge's question.
	// The template expects one %s placeholder for the prompt version.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser carries the retrieved sources and the question.
	// The template expects two %s placeholders: sources, then question.
	PromptAnswerUser = "answer_user"
)
