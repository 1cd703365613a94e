package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fall back to compiled-in defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt has no override, implementations return the compiled-in
	// default for that name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptTestPlan generates viewpoints and grounded test cases.
	// Placeholders: %s (evidence context), %s (user request).
	PromptTestPlan = "test_plan"

	// PromptScript generates a Python Selenium script for one test case.
	// Placeholders: %s (test case block), %s (markup evidence),
	// %s (documentation evidence).
	PromptScript = "script"
)
