package llm

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/interfaces"
)

// Registry owns the provider instances. Providers are constructed
// lazily on first request and memoized for the life of the registry,
// so credential resolution happens once per backend.
type Registry struct {
	claudeConfig *common.ClaudeConfig
	geminiConfig *common.GeminiConfig
	llmConfig    *common.LLMConfig
	kvStorage    interfaces.KeyValueStorage
	logger       arbor.ILogger

	mu        sync.Mutex
	providers map[Identity]Provider
}

func NewRegistry(claudeConfig *common.ClaudeConfig, geminiConfig *common.GeminiConfig, llmConfig *common.LLMConfig, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *Registry {
	return &Registry{
		claudeConfig: claudeConfig,
		geminiConfig: geminiConfig,
		llmConfig:    llmConfig,
		kvStorage:    kvStorage,
		logger:       logger,
		providers:    make(map[Identity]Provider),
	}
}

// DefaultIdentity returns the configured fallback provider identity.
func (r *Registry) DefaultIdentity() Identity {
	if IsKnownIdentity(r.llmConfig.DefaultProvider) {
		return Identity(r.llmConfig.DefaultProvider)
	}
	return IdentityClaude
}

// Get returns the provider for the given identity, constructing it on
// first use. Unknown identities return ErrUnknownProvider; known but
// unconfigured backends return an UnavailableError.
func (r *Registry) Get(ctx context.Context, identity Identity) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if provider, ok := r.providers[identity]; ok {
		if !provider.Available() {
			return nil, &UnavailableError{Provider: identity}
		}
		return provider, nil
	}

	provider, err := r.construct(ctx, identity)
	if err != nil {
		return nil, err
	}
	r.providers[identity] = provider

	if !provider.Available() {
		return nil, &UnavailableError{Provider: identity}
	}
	return provider, nil
}

// Generate resolves the identity and forwards the request to it.
func (r *Registry) Generate(ctx context.Context, identity Identity, request *GenerateRequest) (*ProviderResponse, error) {
	provider, err := r.Get(ctx, identity)
	if err != nil {
		return nil, err
	}
	return provider.Generate(ctx, request)
}

// Available returns the identities with a usable credential, in the
// canonical order.
func (r *Registry) Available(ctx context.Context) []Identity {
	available := make([]Identity, 0, len(Identities))
	for _, identity := range Identities {
		if _, err := r.Get(ctx, identity); err == nil {
			available = append(available, identity)
		}
	}
	return available
}

func (r *Registry) construct(ctx context.Context, identity Identity) (Provider, error) {
	switch identity {
	case IdentityClaude:
		apiKey, err := common.ResolveAPIKey(ctx, r.kvStorage, "anthropic_api_key", r.claudeConfig.APIKey)
		if err != nil {
			r.logger.Warn().Err(err).Msg("Failed to resolve Anthropic API key")
		}
		return newClaudeProvider(apiKey, r.claudeConfig, r.logger), nil
	case IdentityGemini:
		apiKey, err := common.ResolveAPIKey(ctx, r.kvStorage, "gemini_api_key", r.geminiConfig.APIKey)
		if err != nil {
			r.logger.Warn().Err(err).Msg("Failed to resolve Gemini API key")
		}
		return newGeminiProvider(ctx, apiKey, r.geminiConfig, r.logger), nil
	default:
		return nil, ErrUnknownProvider
	}
}
