package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/growthops/adpulse/internal/common"
)

// ClaudeProvider generates content through the Anthropic Claude API
type ClaudeProvider struct {
	config    *common.ClaudeConfig
	client    anthropic.Client
	available bool
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// newClaudeProvider constructs the Claude provider. Availability is
// decided here from the resolved API key and never re-checked per call.
func newClaudeProvider(apiKey string, config *common.ClaudeConfig, logger arbor.ILogger) *ClaudeProvider {
	p := &ClaudeProvider{
		config:  config,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(common.ParseDuration(config.RateLimit, 0)), 1),
	}

	if apiKey == "" {
		logger.Warn().Msg("Claude API key not configured, provider unavailable")
		return p
	}

	p.client = anthropic.NewClient(option.WithAPIKey(apiKey))
	p.available = true
	return p
}

// Identity returns the claude backend identity
func (p *ClaudeProvider) Identity() Identity {
	return IdentityClaude
}

// Available reports whether the provider holds a valid credential
func (p *ClaudeProvider) Available() bool {
	return p.available
}

// DefaultModel returns the configured default Claude model
func (p *ClaudeProvider) DefaultModel() string {
	return p.config.Model
}

// Generate produces content via the Claude messages API. A backend
// rejection of the requested model is retried once with the default
// model; the response reports the model actually used.
func (p *ClaudeProvider) Generate(ctx context.Context, request *GenerateRequest) (*ProviderResponse, error) {
	if !p.available {
		return nil, &UnavailableError{Provider: IdentityClaude}
	}

	model := request.Model
	if model == "" {
		model = p.config.Model
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = p.config.Temperature
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &GenerationError{Provider: IdentityClaude, Model: model, Err: err}
	}

	resp, err := p.newMessage(ctx, model, maxTokens, temp, request.Prompt)
	if err != nil && isModelRejected(err) && model != p.config.Model {
		p.logger.Warn().
			Str("requested_model", model).
			Str("fallback_model", p.config.Model).
			Msg("Requested Claude model rejected, retrying with default")
		model = p.config.Model
		resp, err = p.newMessage(ctx, model, maxTokens, temp, request.Prompt)
	}
	if err != nil {
		return nil, &GenerationError{Provider: IdentityClaude, Model: model, Err: err}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &ProviderResponse{
		Content:  text.String(),
		Provider: IdentityClaude,
		Model:    model,
		Metadata: map[string]interface{}{
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		},
	}, nil
}

func (p *ClaudeProvider) newMessage(ctx context.Context, model string, maxTokens int, temp float32, prompt string) (*anthropic.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	callCtx := ctx
	if timeout := common.ParseDuration(p.config.Timeout, 0); timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return p.client.Messages.New(callCtx, params)
}

var _ Provider = (*ClaudeProvider)(nil)
