package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/growthops/adpulse/internal/common"
)

// GeminiProvider generates content through the Google Gemini API
type GeminiProvider struct {
	config    *common.GeminiConfig
	client    *genai.Client
	available bool
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// newGeminiProvider constructs the Gemini provider. Availability is
// decided here from the resolved API key and the client handle.
func newGeminiProvider(ctx context.Context, apiKey string, config *common.GeminiConfig, logger arbor.ILogger) *GeminiProvider {
	p := &GeminiProvider{
		config:  config,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(common.ParseDuration(config.RateLimit, 0)), 1),
	}

	if apiKey == "" {
		logger.Warn().Msg("Gemini API key not configured, provider unavailable")
		return p
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create Gemini client, provider unavailable")
		return p
	}

	p.client = client
	p.available = true
	return p
}

// Identity returns the gemini backend identity
func (p *GeminiProvider) Identity() Identity {
	return IdentityGemini
}

// Available reports whether the provider holds a valid credential
func (p *GeminiProvider) Available() bool {
	return p.available
}

// DefaultModel returns the configured default Gemini model
func (p *GeminiProvider) DefaultModel() string {
	return p.config.Model
}

// Generate produces content via the Gemini API. A backend rejection of
// the requested model is retried once with the default model; the
// response reports the model actually used.
func (p *GeminiProvider) Generate(ctx context.Context, request *GenerateRequest) (*ProviderResponse, error) {
	if !p.available {
		return nil, &UnavailableError{Provider: IdentityGemini}
	}

	model := request.Model
	if model == "" {
		model = p.config.Model
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = p.config.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &GenerationError{Provider: IdentityGemini, Model: model, Err: err}
	}

	resp, err := p.generateContent(ctx, model, request.Prompt, config)
	if err != nil && isModelRejected(err) && model != p.config.Model {
		p.logger.Warn().
			Str("requested_model", model).
			Str("fallback_model", p.config.Model).
			Msg("Requested Gemini model rejected, retrying with default")
		model = p.config.Model
		resp, err = p.generateContent(ctx, model, request.Prompt, config)
	}
	if err != nil {
		return nil, &GenerationError{Provider: IdentityGemini, Model: model, Err: err}
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &GenerationError{
			Provider: IdentityGemini,
			Model:    model,
			Err:      fmt.Errorf("empty response from Gemini API"),
		}
	}

	return &ProviderResponse{
		Content:  resp.Text(),
		Provider: IdentityGemini,
		Model:    model,
		Metadata: map[string]interface{}{
			"candidates": len(resp.Candidates),
		},
	}, nil
}

func (p *GeminiProvider) generateContent(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	callCtx := ctx
	if timeout := common.ParseDuration(p.config.Timeout, 0); timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	return p.client.Models.GenerateContent(callCtx, model, contents, config)
}

var _ Provider = (*GeminiProvider)(nil)
