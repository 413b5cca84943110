// Package llm provides a uniform abstraction over interchangeable LLM
// backends. Each backend identity maps to one lazily constructed
// provider instance owned by the Registry.
package llm

import "context"

// Identity identifies an LLM backend
type Identity string

const (
	// IdentityClaude uses the Anthropic Claude API
	IdentityClaude Identity = "claude"
	// IdentityGemini uses the Google Gemini API
	IdentityGemini Identity = "gemini"
)

// Identities is the fixed set of known backend identities, in
// registration order.
var Identities = []Identity{IdentityClaude, IdentityGemini}

// IsKnownIdentity reports whether name is a registered backend identity
func IsKnownIdentity(name string) bool {
	for _, id := range Identities {
		if string(id) == name {
			return true
		}
	}
	return false
}

// GenerateRequest is a provider-agnostic content generation request
type GenerateRequest struct {
	Prompt      string
	Model       string // Optional model override; provider default when empty
	MaxTokens   int
	Temperature float32
}

// ProviderResponse is the normalized result of a provider call.
// Immutable once returned. Model reports the model that actually
// produced the content, which may differ from the requested one when
// the backend rejected it and the provider fell back to its default.
type ProviderResponse struct {
	Content  string                 `json:"content"`
	Provider Identity               `json:"provider"`
	Model    string                 `json:"model"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Provider defines the uniform generation contract for one backend
type Provider interface {
	// Generate produces content for the request, or fails with an
	// UnavailableError (credential missing, no network call made) or a
	// GenerationError (upstream call failed).
	Generate(ctx context.Context, request *GenerateRequest) (*ProviderResponse, error)

	// Identity returns the backend identity this provider serves
	Identity() Identity

	// Available reports whether the provider was constructed with a
	// valid credential. Checked at construction time, not per call.
	Available() bool

	// DefaultModel returns the provider's built-in default model
	DefaultModel() string
}
