package driven

import "context"

// CompletionService provides text completion for grounded generation.
// Its output is untrusted: callers must structurally validate everything it
// returns before promoting it into the domain model.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Ollama (local models)
//   - Any OpenAI-compatible inference server
type CompletionService interface {
	// Complete produces a text completion from a prompt.
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// ModelName returns the name of the completion model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test
	// request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompleteOptions configures text generation behaviour.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic sampling).
	// Generation runs at 0 to keep output as stable as the backend allows,
	// though determinism is not a contract the generator relies on.
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
