package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or completion.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API (or a compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings configures the embedding backend.
type EmbeddingSettings struct {
	// Provider selects the embedding backend.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// APIKey authenticates cloud providers.
	APIKey string

	// Dimensions is the embedding vector size for the chosen model.
	Dimensions int
}

// CompletionSettings configures the completion backend.
type CompletionSettings struct {
	// Provider selects the completion backend.
	Provider AIProvider

	// Model is the completion model name.
	Model string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// APIKey authenticates cloud providers.
	APIKey string
}

// RetrievalSettings holds the k-values used by generation requests.
type RetrievalSettings struct {
	// KDocs is the number of support_doc chunks retrieved per request.
	KDocs int

	// KMarkup is the number of markup chunks retrieved per request.
	// Script synthesis enforces KMarkup >= KDocs.
	KMarkup int
}

// Default k-values, mirroring the retrieval depth the generator prompt was
// tuned against.
const (
	DefaultKDocs   = 6
	DefaultKMarkup = 6
)

// Normalise fills zero values with defaults. The script-side markup bias
// (KMarkup >= KDocs) is enforced by the script synthesizer, not here.
func (r RetrievalSettings) Normalise() RetrievalSettings {
	if r.KDocs <= 0 {
		r.KDocs = DefaultKDocs
	}
	if r.KMarkup <= 0 {
		r.KMarkup = DefaultKMarkup
	}
	return r
}
